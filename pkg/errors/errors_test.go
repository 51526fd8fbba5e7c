package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	clone := Clone(ErrSessionFull, "session s1 is full")
	assert.True(t, errors.Is(clone, ErrSessionFull))
	assert.False(t, errors.Is(clone, ErrConflict))

	wrapped := fmt.Errorf("enroll: %w", clone)
	assert.True(t, errors.Is(wrapped, ErrSessionFull))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}

func TestWarning(t *testing.T) {
	assert.True(t, Warning(Clone(ErrInstructorUnavailable, "")))
	assert.False(t, Warning(ErrBlockedTime))
}
