package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by Load and UpdateAccess when no session is stored.
	ErrNoSession = errors.New("no session")

	// ErrInvalidTokens is returned when Save is called without an access token.
	ErrInvalidTokens = errors.New("invalid tokens")

	// ErrSealed is returned when a sealed session file is read without a sealer.
	ErrSealed = errors.New("session is sealed")

	// ErrConfig is returned for invalid store configuration.
	ErrConfig = errors.New("invalid session store config")
)

// StoreError wraps a backend failure with the store operation that hit it.
type StoreError struct {
	Op      string
	Backend string
	Err     error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("session.%s (%s): %v", e.Op, e.Backend, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }
