package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("start session: %w", NotFound("quiz"))

	assert.True(t, errors.Is(err, NotFound("")))
	assert.False(t, errors.Is(err, StepLocked(1)))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "quiz not found", e.Message)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{InvalidRequest("bad"), http.StatusBadRequest},
		{NotFound("session"), http.StatusNotFound},
		{InsufficientPool("single", 5, 3), http.StatusConflict},
		{SkillLocked(1, "Basics", 1), http.StatusLocked},
		{StepLocked(2), http.StatusLocked},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Status(), tt.err.Kind)
	}
}

func TestInsufficientPoolDetails(t *testing.T) {
	err := InsufficientPool("multiple", 5, 3)
	assert.Equal(t, 5, err.Details["required"])
	assert.Equal(t, 3, err.Details["available"])
	assert.Contains(t, err.Error(), "required 5, available 3")
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	assert.Nil(t, From(nil))

	cause := errors.New("connection refused")
	e := From(cause)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, cause)

	locked := StepLocked(3)
	assert.Same(t, locked, From(fmt.Errorf("gate: %w", locked)))
}
