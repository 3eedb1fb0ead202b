package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, Code(NotFound("plan", "abc")))
	assert.Equal(t, ErrCodeInvalidInput, Code(InvalidInput("title", "is required")))

	// uncoded errors default to internal
	assert.Equal(t, ErrCodeInternal, Code(errors.New("boom")))

	// the code survives fmt wrapping
	wrapped := fmt.Errorf("handling request: %w", New(ErrCodePlanLocked, "plan is locked"))
	assert.Equal(t, ErrCodePlanLocked, Code(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodePlanLocked))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeInternal, "query plans")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL: query plans: connection refused", err.Error())
}

func TestMessages(t *testing.T) {
	assert.EqualError(t, NotFound("procurement plan", "p1"), "NOT_FOUND: procurement plan 'p1' not found")
	assert.EqualError(t, Newf(ErrCodeStaleState, "plan status is '%s', expected '%s'", "submitted", "draft"),
		"STALE_STATE: plan status is 'submitted', expected 'draft'")
}
