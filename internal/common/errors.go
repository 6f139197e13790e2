// Package common contains shared helpers and sentinel errors used across
// the Gatekeeper client and servers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// ErrorNotFound is returned by repositories for an absent record.
	ErrorNotFound = errors.New("not found")

	// Validation errors, rejected before any network or database call.
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidResetCode   = errors.New("invalid reset code")
)
