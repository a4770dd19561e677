package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapping(t *testing.T) {
	err := WrapError(NewInvalidInputError("empty content"), "extract")
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, "extract: INVALID_INPUT: empty content: invalid input", err.Error())

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeInvalidInput, appErr.Code)

	assert.NoError(t, WrapError(nil, "noop"))
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewDatabaseError("save result", cause)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)
}

func TestValidateAndReturnError(t *testing.T) {
	v := NewValidator().
		Field("merge_policy", "always", OneOf("none", "fill_gaps")).
		Field("filename", "", Required)
	err := ValidateAndReturnError(v)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, v.Errors(), 2)

	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("merge_policy", "fill_gaps", OneOf("none", "fill_gaps"))))
}
