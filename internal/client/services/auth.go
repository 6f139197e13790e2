// Package services contains application services for the Gatekeeper client.
// This file defines the session service: login, signup, password recovery,
// expiry checking, and housekeeping of the persisted session record.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stayonbrand/gatekeeper/internal/client/api"
	"github.com/stayonbrand/gatekeeper/internal/client/store"
	"github.com/stayonbrand/gatekeeper/internal/common"
	"github.com/stayonbrand/gatekeeper/internal/dbx"
	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// rememberWindow is how long a remember-me session stays valid.
const rememberWindow = 30 * 24 * time.Hour

// AuthError is a user-displayable authentication failure. The message has
// already been cleaned of newlines and technical prefixes.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthService defines the session operations used by the session state and
// the CLI.
//
// Contract:
//   - Login: authenticate; with rememberMe, persist token, user snapshot and
//     a 30-day expiry.
//   - Signup: sanitize inputs, create an account, clean failure messages.
//   - ForgotPassword/ResetPassword: drive the password-recovery flow.
//   - IsAuthExpired: report whether the persisted session has lapsed.
//   - Logout: wipe the persisted session record.
//
// All methods honor context cancellation.
type AuthService interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*api.LoginResult, error)
	Signup(ctx context.Context, email, password, username string) (*api.SignupResult, error)
	ForgotPassword(ctx context.Context, email string) (*api.MessageResult, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (*api.MessageResult, error)
	IsAuthExpired(ctx context.Context) bool
	Logout(ctx context.Context) error
}

// authService is the concrete AuthService backed by the auth backend client
// and the local session database.
type authService struct {
	client api.Client
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and
// session database.
func NewAuthService(client api.Client, db *sql.DB, logger logging.Logger) AuthService {
	return &authService{client: client, db: db, logger: logger, now: time.Now}
}

func (a *authService) sessionStore() store.Repository {
	return store.NewSQLiteRepository(a.db)
}

// Login authenticates against the backend. On success with rememberMe set,
// it persists the access token, the user snapshot, an expiry 30 days out,
// and the remember flag.
func (a *authService) Login(ctx context.Context, email, password string, rememberMe bool) (*api.LoginResult, error) {
	email = common.CleanEmail(email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmailFormat
	}

	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, loginError(err)
	}

	if rememberMe {
		if err := a.persistSession(ctx, res); err != nil {
			return nil, fmt.Errorf("session saving error: %w", err)
		}
	}
	return res, nil
}

// persistSession writes the full session record in a single transaction, so
// a failure never leaves a partial record behind.
func (a *authService) persistSession(ctx context.Context, res *api.LoginResult) error {
	expiry := a.now().Add(rememberWindow).Format(time.RFC3339)

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := store.NewSQLiteRepository(tx)

		if err := st.Set(ctx, store.KeyAccessToken, res.AccessToken); err != nil {
			return err
		}
		if res.User != nil {
			raw, err := json.Marshal(res.User)
			if err != nil {
				return err
			}
			if err := st.Set(ctx, store.KeyUserData, string(raw)); err != nil {
				return err
			}
		}
		if err := st.Set(ctx, store.KeyAuthExpiry, expiry); err != nil {
			return err
		}
		return st.Set(ctx, store.KeyRememberMe, "true")
	})
}

// Signup creates an account. Inputs are HTML-entity encoded before
// transmission; backend failure messages are cleaned for display.
func (a *authService) Signup(ctx context.Context, email, password, username string) (*api.SignupResult, error) {
	email = common.CleanEmail(email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmailFormat
	}

	res, err := a.client.Signup(ctx, SanitizeInput(email), SanitizeInput(password), SanitizeInput(username))
	if err != nil {
		if isTransport(err) {
			return nil, err
		}
		return nil, &AuthError{Message: "Sign up failed: " + cleanBackendMessage(err, "Signup failed")}
	}
	return res, nil
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (*api.MessageResult, error) {
	email = common.CleanEmail(email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmailFormat
	}

	res, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		if isTransport(err) {
			return nil, err
		}
		return nil, &AuthError{Message: backendMessage(err, "Failed to send reset email")}
	}
	return res, nil
}

func (a *authService) ResetPassword(ctx context.Context, email, code, newPassword string) (*api.MessageResult, error) {
	email = common.CleanEmail(email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmailFormat
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, common.ErrInvalidResetCode
	}

	res, err := a.client.ResetPassword(ctx, email, code, newPassword)
	if err != nil {
		if isTransport(err) {
			return nil, err
		}
		return nil, &AuthError{Message: backendMessage(err, "Failed to reset password")}
	}
	return res, nil
}

// IsAuthExpired reports whether the persisted expiry timestamp has passed.
// No persisted expiry means "not expired"; an unparsable one is treated as
// expired (fail-safe).
func (a *authService) IsAuthExpired(ctx context.Context) bool {
	raw, err := a.sessionStore().Get(ctx, store.KeyAuthExpiry)
	if err != nil {
		return false
	}

	expiry, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return a.now().After(expiry)
}

// Logout wipes the persisted session record.
func (a *authService) Logout(ctx context.Context) error {
	return a.sessionStore().Clear(ctx)
}

func isTransport(err error) bool {
	return errors.Is(err, api.ErrUnavailable)
}

// loginError keeps transport failures intact and converts backend responses
// into a displayable AuthError.
func loginError(err error) error {
	if isTransport(err) {
		return err
	}
	return &AuthError{Message: backendMessage(err, "Login failed")}
}

// backendMessage extracts the message from a *api.BackendError, falling back
// to a fixed default, and strips embedded CR/LF.
func backendMessage(err error, fallback string) string {
	var be *api.BackendError
	if !errors.As(err, &be) || be.Message == "" {
		return fallback
	}
	return stripNewlines(be.Message)
}

// cleanBackendMessage additionally drops a leading "prefix: " technical
// segment and remaps the generic user-exists message to an email-specific
// one.
func cleanBackendMessage(err error, fallback string) string {
	msg := backendMessage(err, fallback)

	if strings.Contains(msg, ": ") {
		parts := strings.Split(msg, ": ")
		msg = stripNewlines(parts[len(parts)-1])
		if msg == "" {
			msg = fallback
		}
	}

	if msg == "User already exists" {
		msg = "Email already exists"
	}
	return msg
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
