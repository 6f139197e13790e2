// Package api contains the client-side contract for the auth backend.
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the auth
//     proxy endpoints: CSRF token, login, signup, forgot/reset password.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that acquires an
//     anti-forgery token before every mutating call and maps transport
//     failures to sentinel errors.
//
// Common conditions are exposed as errors that callers match with errors.Is
// or errors.As: ErrUnavailable for unreachable backends, *BackendError for
// non-2xx responses carrying a message.
package api

import "context"

// User is the account snapshot returned by the auth backend.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// LoginResult carries the access token and user returned by a successful
// login. The backend historically used both "accessToken" and "token" field
// names; the HTTP implementation normalizes them into AccessToken.
type LoginResult struct {
	AccessToken string
	User        *User
}

// SignupResult is the success shape of the signup endpoint.
type SignupResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// MessageResult is the success shape of the password-recovery endpoints.
type MessageResult struct {
	Message string `json:"message"`
}

// Client is the auth backend contract consumed by the session service.
//
// All methods honor context cancellation. Mutating calls acquire a CSRF
// token first; when acquisition fails the request is sent without the
// header rather than blocking the user action.
type Client interface {
	CSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Signup(ctx context.Context, email, password, username string) (*SignupResult, error)
	ForgotPassword(ctx context.Context, email string) (*MessageResult, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (*MessageResult, error)
}
