package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateBookInput ensures each field constraint is enforced.
func TestValidateBookInput(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(in *BookInput)
		field   string
		rule    string
		message string
	}{
		{"empty isbn", func(in *BookInput) { in.ISBN = "" }, "isbn", "required", "the isbn is required"},
		{"empty name", func(in *BookInput) { in.Name = "" }, "name", "required", "the name is required"},
		{"empty description", func(in *BookInput) { in.Description = "" }, "description", "required", "the description is required"},
		{
			"description of 255 characters",
			func(in *BookInput) { in.Description = strings.Repeat("d", 255) },
			"description", "lt", "the description must be less than 255",
		},
		{"zero numpage", func(in *BookInput) { in.NumPage = 0 }, "numpage", "required", "the numpage is required"},
		{"numpage of 1200", func(in *BookInput) { in.NumPage = 1200 }, "numpage", "lt", "the numpage must be less than 1200"},
		{"numpage above 1200", func(in *BookInput) { in.NumPage = 5000 }, "numpage", "lt", "the numpage must be less than 1200"},
		{"empty author", func(in *BookInput) { in.Author = "" }, "author", "required", "the author is required"},
		{"empty datepublished", func(in *BookInput) { in.DatePublished = "" }, "datepublished", "required", "the datepublished is required"},
		{"zero editions", func(in *BookInput) { in.Editions = 0 }, "editions", "required", "the editions is required"},
	}

	for _, tc := range testCases {
		t.Run("should fail: "+tc.name, func(t *testing.T) {
			in := validBookInput()
			tc.mutate(&in)
			err := ValidateBookInput(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.field, ie.Field)
			assert.Equal(t, tc.rule, ie.Rule)
			assert.Equal(t, tc.message, ie.Error())
		})
	}

	t.Run("should pass: valid input", func(t *testing.T) {
		assert.NoError(t, ValidateBookInput(validBookInput()))
	})

	t.Run("should pass: upper bounds minus one", func(t *testing.T) {
		in := validBookInput()
		in.Description = strings.Repeat("d", 254)
		in.NumPage = 1199
		assert.NoError(t, ValidateBookInput(in))
	})

	t.Run("should pass: description length counted in characters", func(t *testing.T) {
		in := validBookInput()
		in.Description = strings.Repeat("é", 254)
		assert.NoError(t, ValidateBookInput(in))
	})

	t.Run("should fail: first violation in field order is reported", func(t *testing.T) {
		in := validBookInput()
		in.Name = ""
		in.NumPage = 0
		in.Editions = 0
		var ie *InputError
		require.True(t, errors.As(ValidateBookInput(in), &ie))
		assert.Equal(t, "name", ie.Field)
	})
}
