package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Correct-Horse9!")
	require.NoError(t, err)
	assert.NotEqual(t, "Correct-Horse9!", hash)

	assert.True(t, VerifyPassword("Correct-Horse9!", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng!Pass", false},
		{"too short", "Ab1!", true},
		{"no uppercase", "weak1!pass", true},
		{"no lowercase", "WEAK1!PASS", true},
		{"no digit", "Weak!Pass", true},
		{"no special char", "Weak1Pass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("agent@example.com"))
	assert.True(t, IsValidEmail("  agent@example.com "))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail(""))
}
