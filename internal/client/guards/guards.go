// Package guards contains the navigation predicates consulted before every
// route change. Guards never propagate failures: anything going wrong inside
// resolves to "not authenticated" and a redirect.
package guards

import (
	"context"
	"net/url"

	"github.com/stayonbrand/gatekeeper/internal/client/session"
	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// Route metadata, the Go rendition of the router's route records.
type Route struct {
	Name          string
	Path          string
	RequiresAuth  bool
	RequiresGuest bool
}

// Well-known redirect targets.
const (
	LoginRoute     = "Login"
	DashboardRoute = "Dashboard"
)

// Decision is the outcome of a guard evaluation. When Allowed is false,
// RedirectTo names the route to navigate to instead, with Query carrying
// any parameters (the original destination is preserved under "redirect").
type Decision struct {
	Allowed    bool
	RedirectTo string
	Query      url.Values
}

func allow() Decision {
	return Decision{Allowed: true}
}

// Evaluator runs the guard chain against the session state.
type Evaluator struct {
	session *session.State
	logger  logging.Logger
}

func NewEvaluator(s *session.State, logger logging.Logger) *Evaluator {
	return &Evaluator{session: s, logger: logger}
}

// Evaluate runs the auth guard and then the guest guard, in that fixed
// order, returning the first non-allow decision.
func (e *Evaluator) Evaluate(ctx context.Context, to Route) Decision {
	if d := e.AuthGuard(ctx, to); !d.Allowed {
		return d
	}
	return e.GuestGuard(ctx, to)
}

// AuthGuard redirects unauthenticated navigations to login, preserving the
// original destination. Before deciding it opportunistically retries the
// restore-from-persistence path once, which covers a session written by
// another context since the last check.
func (e *Evaluator) AuthGuard(ctx context.Context, to Route) Decision {
	if !to.RequiresAuth {
		return allow()
	}

	if e.isAuthenticated(ctx, true) {
		return allow()
	}

	return Decision{
		Allowed:    false,
		RedirectTo: LoginRoute,
		Query:      url.Values{"redirect": []string{to.Path}},
	}
}

// GuestGuard redirects authenticated users away from guest-only routes.
func (e *Evaluator) GuestGuard(ctx context.Context, to Route) Decision {
	if !to.RequiresGuest {
		return allow()
	}

	if e.isAuthenticated(ctx, false) {
		return Decision{Allowed: false, RedirectTo: DashboardRoute}
	}
	return allow()
}

// isAuthenticated consults the session, optionally retrying the restore
// path when currently unauthenticated. A panic anywhere below resolves to
// "not authenticated".
func (e *Evaluator) isAuthenticated(ctx context.Context, retryRestore bool) (authed bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "guard evaluation failed", "panic", r)
			authed = false
		}
	}()

	if e.session.IsAuthenticated() {
		return true
	}
	if retryRestore {
		e.session.Restore(ctx)
	}
	return e.session.IsAuthenticated()
}
