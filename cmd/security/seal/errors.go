package seal

import "errors"

// Public, stable errors for callers.
var (
	ErrEmptyPassphrase = errors.New("empty passphrase")
	ErrMalformed       = errors.New("malformed sealed blob")
	ErrOpen            = errors.New("cannot open sealed blob: wrong passphrase or corrupted data")
)
