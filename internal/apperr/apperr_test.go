package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/db"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("disk full"), want: apperr.KindStorage},
		{name: "direct", err: apperr.NotFound("op", "missing"), want: apperr.KindNotFound},
		{name: "wrapped", err: fmt.Errorf("outer: %w", apperr.Validation("op", "bad")), want: apperr.KindValidation},
		{name: "partial", err: apperr.PartialFailure("op", errors.New("x")), want: apperr.KindPartialFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIsByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperr.Conflict("workflow.approve", "already approved"))
	if !errors.Is(err, &apperr.Error{Kind: apperr.KindConflict}) {
		t.Fatalf("expected errors.Is to match conflict kind")
	}
	if errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}) {
		t.Fatalf("did not expect not-found match")
	}
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected apperr.Is to match")
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("locked")
	err := apperr.Storage("assets.create", cause)
	if got := err.Error(); got != "assets.create: StorageError: storage failure" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
}

func TestFromTx(t *testing.T) {
	conflict := apperr.Conflict("op", "not pending")

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "classified", err: conflict, want: apperr.KindConflict},
		{name: "commit failure", err: errors.New("database is locked"), want: apperr.KindStorage},
		{name: "rollback failure", err: errors.Join(conflict, fmt.Errorf("%w: conn closed", db.ErrRollbackFailed)), want: apperr.KindPartialFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperr.FromTx("tx", tt.err)
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("KindOf(FromTx(%v)) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
