// Package model holds the catalog entities and the error values shared by
// the store, the services and the HTTP layer.  Callers classify failures
// with errors.Is against the sentinels below; anything that does not wrap
// one of them is an unclassified internal failure.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed or out-of-range input field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an id that no store holds.
	ErrNotFound = errors.New("not found")
	// ErrMissingID is returned when an update arrives without an id.
	ErrMissingID = errors.New("id is required")
	// ErrInvalidOperation marks requests that can never succeed, such as
	// befriending yourself.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrAlreadyFriends guards against adding an existing friend edge.
	ErrAlreadyFriends = errors.New("already friends")
	// ErrAlreadyLiked guards against a duplicate like.
	ErrAlreadyLiked = errors.New("already liked")
	// ErrNotLiked is returned when removing a like that does not exist.
	ErrNotLiked = errors.New("not liked")
)

// Error couples a sentinel kind with a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns an ErrValidation with msg as its message.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

// NotFound returns an ErrNotFound naming the entity and the missing id.
func NotFound(entity string, id uint64) error {
	return Errorf(ErrNotFound, "%s with id = %d not found", entity, id)
}
