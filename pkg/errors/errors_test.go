package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(stdErrors.New("db down"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Error(), "db down")
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesByCode(t *testing.T) {
	clone := Clone(ErrNotFound, "vehicle not found")
	assert.Equal(t, "vehicle not found", clone.Message)
	assert.True(t, stdErrors.Is(clone, ErrNotFound))
	assert.False(t, stdErrors.Is(clone, ErrValidation))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestInternalKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Internal(cause, "failed to list vehicles")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to list vehicles", err.Message)
}

func TestValidationExpandsFieldErrors(t *testing.T) {
	type payload struct {
		FullName string `validate:"required"`
		OwnerID  string `validate:"required,uuid"`
		Kind     string `validate:"oneof=DRIVER ASSISTANT VEHICLE"`
	}
	err := validator.New().Struct(payload{OwnerID: "nope", Kind: "BUS"})
	require.Error(t, err)

	appErr := Validation(err, "invalid employee payload")
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, map[string]string{
		"full_name": "is required",
		"owner_id":  "must be a UUID",
		"kind":      "must be one of DRIVER ASSISTANT VEHICLE",
	}, appErr.Fields)

	plain := Validation(stdErrors.New("bad date"), "invalid date")
	assert.Nil(t, plain.Fields)
}
