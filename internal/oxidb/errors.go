package oxidb

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a failure reported by the server.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s", e.Msg)
}

// DuplicateKeyError means an insert hit a unique index. For an append-only
// collection it usually means an earlier attempt already stored the document.
type DuplicateKeyError struct {
	Msg string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("oxidb: duplicate key: %s", e.Msg)
}

func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

func serverError(msg string) error {
	if msg == "" {
		return &Error{Msg: "unknown error"}
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate") {
		return &DuplicateKeyError{Msg: msg}
	}
	return &Error{Msg: msg}
}
