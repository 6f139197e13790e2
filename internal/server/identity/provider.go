// Package identity abstracts the managed identity provider fronted by the
// auth proxy. The real provider lives outside this repository; DevProvider
// gives local development and tests something to run against.
package identity

import (
	"context"
	"errors"
)

// User is the account snapshot returned to clients on login and signup.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// LoginResult carries the minted access token and the account it belongs to.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

// SignupResult is the provider's answer to a successful registration.
type SignupResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Provider failure sentinels. Handlers return their text verbatim in the
// 400 body, so the strings are part of the wire contract with the client.
var (
	ErrUserExists         = errors.New("User already exists")
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidCredentials = errors.New("Incorrect username or password.")
	ErrInvalidCode        = errors.New("Invalid verification code provided, please try again.")
)

// Provider is the identity backend contract used by the auth proxy handlers.
type Provider interface {
	Signup(ctx context.Context, username, email, password string) (*SignupResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}
