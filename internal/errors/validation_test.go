package errors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("question_index", "is required", 3)

	assert.Equal(t, "question_index", err.Field)
	assert.Equal(t, 3, err.Value)
	assert.Equal(t, "validation error on field 'question_index': is required", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("value", "is required", nil))
	assert.Equal(t, "validation failed: value is required", errs.Error())

	errs = append(errs, *NewValidationErrorWithRule("action", "bad", "nav_action", "jump"))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
	assert.Equal(t, "nav_action", errs[1].Rule)
}

func TestToValidationErrors(t *testing.T) {
	type navigate struct {
		Action string `validate:"required,oneof=next prev goto"`
		Index  int    `validate:"min=0"`
	}

	v := validator.New()
	err := v.Struct(navigate{Action: "jump", Index: -1})
	require.Error(t, err)

	out := ToValidationErrors(err)
	require.Len(t, out, 2)
	assert.Equal(t, "Action", out[0].Field)
	assert.Equal(t, "must be one of: next prev goto", out[0].Message)
	assert.Equal(t, "oneof", out[0].Rule)
	assert.Equal(t, "must be at least 0", out[1].Message)
}

func TestToValidationErrors_OtherErrors(t *testing.T) {
	assert.Nil(t, ToValidationErrors(nil))

	out := ToValidationErrors(errors.New("malformed body"))
	require.Len(t, out, 1)
	assert.Equal(t, "malformed body", out[0].Message)

	single := NewValidationError("exam_id", "is required", nil)
	assert.Equal(t, ValidationErrors{*single}, ToValidationErrors(single))
}
