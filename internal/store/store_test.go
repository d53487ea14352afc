package store

import (
	"context"
	"errors"
	"testing"
)

func TestLedgerStoreInterface(t *testing.T) {
	// Ensure the interface is non-nil type.
	var _ LedgerStore
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		err   error
		class error
	}{
		{ErrBikeNotFound, ErrNotFound},
		{ErrStationNotFound, ErrNotFound},
		{ErrUserNotFound, ErrNotFound},
		{ErrBikeAlreadyCheckedOut, ErrConflict},
		{ErrBikeNotCheckedOut, ErrConflict},
		{ErrStationFull, ErrConflict},
		{ErrStationHasNoBike, ErrConflict},
		{ErrReturnByWrongUser, ErrConflict},
		{ErrBusy, ErrConflict},
		{Validationf("distance must be >= 0, got %d", -1), ErrValidation},
		{Storage("insert operation", errors.New("disk I/O error")), ErrStorage},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.class) {
			t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.class)
		}
	}

	if errors.Is(ErrBikeNotFound, ErrConflict) {
		t.Error("NotFound must not be classified as Conflict")
	}
}

func TestStorageKeepsCause(t *testing.T) {
	err := Storage("begin transaction", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped cause to be preserved, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("storage errors should be retryable")
	}
	if IsRetryable(ErrReturnByWrongUser) {
		t.Error("wrong-user return should not be retryable")
	}
}
