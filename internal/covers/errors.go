package covers

import (
	"errors"
	"fmt"
)

// Sentinel errors for Spotify API operations.
var (
	ErrNotConfigured = errors.New("spotify: client credentials not configured")
	ErrUnauthorized  = errors.New("spotify: credentials rejected")
	ErrNotFound      = errors.New("spotify: not found")
	ErrRateLimited   = errors.New("spotify: rate limited by server")
	ErrServer        = errors.New("spotify: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // "token", "album", "search"
	Ref string // album id or query, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("spotify %s [%s]: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("spotify %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, ref string, err error) error {
	return &Error{Op: op, Ref: ref, Err: err}
}
