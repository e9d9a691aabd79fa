package domain

import "errors"

var (
	ErrConfigNotFound  = errors.New("welcome config not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized means Discord rejected the stored access token.
	// Callers must destroy the session and force re-login.
	ErrUnauthorized = errors.New("discord rejected credentials")

	// ErrUpstreamData means Discord answered with an unexpected shape
	// (an error object where a list was expected). Callers degrade to an
	// empty result instead of iterating malformed data.
	ErrUpstreamData = errors.New("malformed upstream response")
)
