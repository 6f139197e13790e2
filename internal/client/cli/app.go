// Package cli is the interactive shell around the session state: it drives
// login/signup/password-recovery flows and lets the user "navigate" the
// route table to see the guards at work.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stayonbrand/gatekeeper/internal/client/api"
	"github.com/stayonbrand/gatekeeper/internal/client/config"
	"github.com/stayonbrand/gatekeeper/internal/client/guards"
	"github.com/stayonbrand/gatekeeper/internal/client/profile"
	"github.com/stayonbrand/gatekeeper/internal/client/services"
	"github.com/stayonbrand/gatekeeper/internal/client/session"
	"github.com/stayonbrand/gatekeeper/internal/client/store"
	"github.com/stayonbrand/gatekeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	auth    services.AuthService
	session *session.State
	guards  *guards.Evaluator
	logger  logging.Logger
	reader  *bufio.Reader
	out     *os.File
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewText(os.Stderr)

	db, err := store.InitDatabase(ctx, cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("session database init error: %w", err)
	}
	st := store.NewSQLiteRepository(db)

	apiClient := api.NewHTTPClient(cfg.AuthBaseURL, cfg.RequestTimeout.Duration, logger)
	authService := services.NewAuthService(apiClient, db, logger)

	tiers := profile.LoadTierMap(logger)
	fetcher := profile.NewHTTPFetcher(cfg.ProfileBaseURL, cfg.ProfileAPIToken, cfg.RequestTimeout.Duration, tiers)

	sess := session.New(ctx, authService, fetcher, st, logger)

	return &App{
		config:  cfg,
		auth:    authService,
		session: sess,
		guards:  guards.NewEvaluator(sess, logger),
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) status() string {
	snap := a.session.Snapshot()
	if !snap.Authenticated {
		return ""
	}
	s := snap.User.Email
	if snap.ActiveTier != nil {
		s += " " + *snap.ActiveTier
	}
	return fmt.Sprintf("(%s)", s)
}

// Run starts the read–eval–print loop. It exits on EOF or when the user
// types "exit" or "quit".
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the Stay on Brand CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "sob %s> ", a.status())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.session.IsAuthenticated() {
				fmt.Fprintln(a.out, "Available commands: status, refresh, open <route>, routes, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, signup, forgot, reset, open <route>, routes, exit")
			}
		case "login":
			a.Login(ctx)
		case "signup":
			a.Signup(ctx)
		case "forgot":
			a.ForgotPassword(ctx)
		case "reset":
			a.ResetPassword(ctx)
		case "logout":
			a.Logout(ctx)
		case "status":
			a.Status(ctx)
		case "refresh":
			a.Refresh(ctx)
		case "routes":
			a.Routes()
		case "open":
			if len(args) != 1 {
				fmt.Fprintln(a.out, "usage: open <route>")
				continue
			}
			a.Open(ctx, args[0])
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintf(a.out, "Unknown command: %s\n", cmd)
		}
	}
}

// Routes lists the route table with its access requirements.
func (a *App) Routes() {
	for _, r := range routeTable {
		access := "public"
		if r.RequiresAuth {
			access = "requires auth"
		}
		if r.RequiresGuest {
			access = "guest only"
		}
		fmt.Fprintf(a.out, "%-16s %-24s %s\n", r.Name, r.Path, access)
	}
}

// Open evaluates the guards against the named route and reports the
// navigation outcome.
func (a *App) Open(ctx context.Context, name string) {
	route, ok := findRoute(name)
	if !ok {
		fmt.Fprintf(a.out, "Unknown route: %s (try 'routes')\n", name)
		return
	}

	d := a.guards.Evaluate(ctx, route)
	if d.Allowed {
		fmt.Fprintf(a.out, "-> %s\n", route.Path)
		return
	}

	target := d.RedirectTo
	if len(d.Query) > 0 {
		target += "?" + d.Query.Encode()
	}
	fmt.Fprintf(a.out, "redirected to %s\n", target)
}
