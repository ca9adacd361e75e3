package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognizerError_Error(t *testing.T) {
	err := InvalidArgument("text must not be empty")
	assert.Equal(t, "[INVALID_ARGUMENT] text must not be empty", err.Error())

	cause := stderrors.New("match timeout")
	wrapped := RegexBudgetExceeded("date.monthDay", cause)
	assert.Contains(t, wrapped.Error(), "REGEX_BUDGET_EXCEEDED")
	assert.Contains(t, wrapped.Error(), "match timeout")
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("resolve: %w", UnsupportedCulture("xx-yy"))

	assert.True(t, IsCode(err, ErrCodeUnsupportedCulture))
	assert.False(t, IsCode(err, ErrCodeInvalidArgument))
	assert.False(t, IsCode(stderrors.New("plain"), ErrCodeInternal))
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeOutOfRange, GetCodeFromError(OutOfRange("day", 32), ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(stderrors.New("boom"), ErrCodeInternal))
}

func TestWithContext(t *testing.T) {
	err := ParseFailed("no value").WithContext("culture", "en-us")
	assert.Equal(t, "en-us", err.Context["culture"])
	assert.Equal(t, ErrCodeParseFailed, err.GetCode())
}
