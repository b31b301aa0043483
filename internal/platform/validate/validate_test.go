// Copyright (c) 2026 SafHub. All rights reserved.

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/platform/validate"
	"github.com/safhub/safhub/pkg/uuid"
)

/*
TestValidator_Rules runs each rule against passing and failing input.
*/
func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name  string
		apply func(v *validate.Validator)
		fails bool
	}{
		{"required ok", func(v *validate.Validator) { v.Required("email", "a@b.co") }, false},
		{"required blank", func(v *validate.Validator) { v.Required("email", "   ") }, true},
		{"email ok", func(v *validate.Validator) { v.Email("email", "ada@school.edu") }, false},
		{"email missing domain", func(v *validate.Validator) { v.Email("email", "ada@") }, true},
		{"password long enough", func(v *validate.Validator) { v.MinLen("password", "hunter22", 6) }, false},
		{"password counts runes", func(v *validate.Validator) { v.MinLen("password", "ééééé", 6) }, true},
		{"uuid ok", func(v *validate.Validator) { v.UUID("user_id", uuid.New()) }, false},
		{"uuid garbage", func(v *validate.Validator) { v.UUID("user_id", "not-a-uuid") }, true},
		{"scope ok", func(v *validate.Validator) { v.OneOf("scope", "local", "global", "local", "others") }, false},
		{"scope unknown", func(v *validate.Validator) { v.OneOf("scope", "everywhere", "global", "local", "others") }, true},
		{"teacher storable", func(v *validate.Validator) { v.StorableRole("role", sec.RoleTeacher) }, false},
		{"parent not storable", func(v *validate.Validator) { v.StorableRole("role", sec.RoleParent) }, true},
		{"empty role not storable", func(v *validate.Validator) { v.StorableRole("role", "") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			tt.apply(v)

			assert.Equal(t, tt.fails, v.HasErrors())
			if !tt.fails {
				assert.NoError(t, v.Err())
				return
			}
			appErr := apperr.As(v.Err())
			require.NotNil(t, appErr)
			assert.Equal(t, apperr.CodeValidation, appErr.Code)
			assert.Len(t, appErr.Details, 1)
		})
	}
}

/*
TestValidator_Accumulates checks that a chain reports every failure under
the validator's message.
*/
func TestValidator_Accumulates(t *testing.T) {
	err := validate.New("Invalid role assignment").
		UUID("user_id", "42").
		StorableRole("role", sec.RoleParent).
		Err()

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "Invalid role assignment", appErr.Message)
	assert.Equal(t, []string{"user_id", "role"}, []string{appErr.Details[0].Field, appErr.Details[1].Field})
}

func TestInvalid(t *testing.T) {
	appErr := validate.Invalid("token", "This field is required")
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	assert.Equal(t, "token", appErr.Details[0].Field)
}
