package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	base := Conflict(ReasonCohortFull, "cohort is full")
	wrapped := fmt.Errorf("fulfill: %w", base)

	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.Equal(t, ReasonCohortFull, ReasonOf(wrapped))
	assert.Equal(t, "cohort is full", MessageOf(wrapped))
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")

	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, ReasonNone, ReasonOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeExternalService, "payment processor unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "payment processor unavailable", MessageOf(err))
}

func TestWithReasonDoesNotMutateOriginal(t *testing.T) {
	orig := New(CodeConflict, "already there")
	withReason := orig.WithReason(ReasonAlreadyIssued)

	assert.Equal(t, ReasonNone, orig.Reason)
	assert.Equal(t, ReasonAlreadyIssued, withReason.Reason)
}
