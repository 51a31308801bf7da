package helpdesk

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is the kind of every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedResponse is returned when a 2xx body lacks what the call needs.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError carries client-side field errors, keyed by wire field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrValidation, FormatFields(e.Fields))
}

// FormatFields renders field errors as "field: msg; other: msg" in key order.
func FormatFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}
