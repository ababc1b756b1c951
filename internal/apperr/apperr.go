// Package apperr defines the error kinds surfaced by the service layer.
package apperr

import (
	"errors"
	"fmt"

	"github.com/garnizeh/fixmate/internal/db"
)

// Kind classifies a failure for callers.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindNotFound           Kind = "NotFound"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindInvalidToken       Kind = "InvalidToken"
	KindConflict           Kind = "Conflict"
	KindStorage            Kind = "StorageError"
	KindPartialFailure     Kind = "PartialFailureError"
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// KindOf returns the kind of the first *Error in err's chain, or KindStorage
// for unclassified errors. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func DuplicateEmail(op, email string) error {
	return &Error{Kind: KindDuplicateEmail, Op: op, Message: fmt.Sprintf("email %q is already registered", email)}
}

func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func InvalidCredentials(op string) error {
	return &Error{Kind: KindInvalidCredentials, Op: op, Message: "incorrect password"}
}

func InvalidToken(op string, err error) error {
	return &Error{Kind: KindInvalidToken, Op: op, Message: "invalid or expired verification token", Err: err}
}

func Conflict(op, msg string) error {
	return &Error{Kind: KindConflict, Op: op, Message: msg}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Message: "storage failure", Err: err}
}

func PartialFailure(op string, err error) error {
	return &Error{Kind: KindPartialFailure, Op: op, Message: "transition partially applied; manual reconciliation may be required", Err: err}
}

// FromTx classifies the error returned by a transaction scope. Errors already
// classified inside the scope keep their kind unless the rollback failed, in
// which case the transition may be partially applied.
func FromTx(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrRollbackFailed) {
		return PartialFailure(op, err)
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Storage(op, err)
}
