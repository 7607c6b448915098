package domainerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "not found",
			err:      &NotFoundError{Entity: "invoice", ID: "abc"},
			expected: "invoice not found: abc",
		},
		{
			name:     "status",
			err:      &StatusError{Entity: "invoice", ID: "abc", Actual: "draft", Expected: "approved"},
			expected: "invoice abc not in approved status (status: draft)",
		},
		{
			name:     "validation",
			err:      &ValidationError{Field: "invoice_ids", Reason: "must not be empty"},
			expected: "invalid invoice_ids: must not be empty",
		},
		{
			name:     "conflict",
			err:      &ConflictError{Entity: "payment", ID: "p1", Want: "pending"},
			expected: "payment p1 is no longer pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConflictError_Unwrap(t *testing.T) {
	err := fmt.Errorf("saving batch: %w", &ConflictError{Entity: "payment", ID: "p1", Want: "pending"})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", &NotFoundError{Entity: "claim", ID: "c1"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("other")))
}
