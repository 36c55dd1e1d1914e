package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	// 254 chars total: 64 local + @ + 185 domain label + ".com" (4)
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Empty", "", true},
		{"Too Long", emailAt254 + "m", true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Space In Local Part", "user @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "secret", false},
		{"Exactly Min Length", "abcdef", false},
		{"Exactly Max Length", strings.Repeat("a", 128), false},
		{"Too Short", "abcde", true},
		{"Too Long", strings.Repeat("a", 129), true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName(""))
	assert.NoError(t, ValidateName("Bunda Demo"))
	assert.NoError(t, ValidateName(strings.Repeat("n", 120)))
	assert.Error(t, ValidateName(strings.Repeat("n", 121)))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM  "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
