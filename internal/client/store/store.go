// Package store holds the persisted session surface of the client: a small
// key-value repository backed by a local SQLite database. It mirrors the
// session owned by the in-memory state; it never owns it.
package store

import "context"

// Storage keys. The names match what the auth backend ecosystem expects.
const (
	KeyAccessToken = "accessToken"
	KeyUserData    = "userData"
	KeyAuthExpiry  = "authExpiry"
	KeyRememberMe  = "rememberMe"
)

// Repository is the durable key-value surface holding tokens, the user
// snapshot and the remember-me flag.
//
// Get returns common.ErrorNotFound for an absent key. Clear removes every
// key in one statement and is used on logout.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
