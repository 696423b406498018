package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("recipe", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "This field is required."),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "a@example.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("no credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("getting recipe: %w", NotFound("recipe", "1")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("recipe", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("recipe", "7"),
			wantMessage: "recipe not found with id 7",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("user", "a@example.com"),
			wantMessage: "user conflict with id a@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.err.Error())
		})
	}
}

func TestValidationFailedPopulatesFields(t *testing.T) {
	err := ValidationFailed("email", "Enter a valid email address.")

	assert.Equal(t, "email", err.Field)
	assert.Equal(t, map[string][]string{"email": {"Enter a valid email address."}}, err.Fields)
}

func TestFieldErrors_EmptyIsNil(t *testing.T) {
	var fe FieldErrors
	assert.NoError(t, fe.Err())
}

func TestFieldErrors_CollectsMultipleFields(t *testing.T) {
	var fe FieldErrors
	fe.Add("title", "This field is required.")
	fe.Add("price", "This field is required.")
	fe.Add("price", "A valid number is required.")

	err := fe.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Len(t, appErr.Fields, 2)
	assert.Len(t, appErr.Fields["price"], 2)
	// alphabetically first field drives the summary message
	assert.Equal(t, "price", appErr.Field)
	assert.Equal(t, "price: This field is required.", appErr.Message)
}

func TestInvalid_NonFieldMessageIsBare(t *testing.T) {
	err := Invalid(FieldErrors{NonFieldErrors: {"Unable to authenticate with provided credentials."}})
	assert.Equal(t, "Unable to authenticate with provided credentials.", err.Message)
}

func TestInvalid_CopiesFields(t *testing.T) {
	fe := FieldErrors{"title": {"too long"}}
	err := Invalid(fe)
	fe.Add("title", "mutated later")

	assert.Equal(t, []string{"too long"}, err.Fields["title"])
}
