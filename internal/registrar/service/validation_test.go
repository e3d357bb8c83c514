package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

func TestValidateDomainName(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		wantErr bool
	}{
		{"simple", "example.com", false},
		{"subdomain", "shop.example.co.uk", false},
		{"punycode tld", "example.xn--p1ai", false},
		{"hyphenated label", "my-shop.io", false},
		{"empty", "", true},
		{"single label", "localhost", true},
		{"leading hyphen", "-example.com", true},
		{"trailing hyphen", "example-.com", true},
		{"numeric tld", "example.123", true},
		{"label too long", strings.Repeat("a", 64) + ".com", true},
		{"spaces", "exa mple.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomainName("Mock", tt.domain)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			regErr, ok := domain.AsRegistrarError(err)
			require.True(t, ok)
			assert.Equal(t, domain.KindValidationError, regErr.Kind)
			assert.Contains(t, regErr.FieldErrors(), "domain")
		})
	}
}

func TestValidateRequired(t *testing.T) {
	t.Run("CollectsAllMissingFields", func(t *testing.T) {
		data := map[string]any{
			"domain":      "example.com",
			"years":       1,
			"nameservers": []string{},
			"contact":     "  ",
		}

		err := ValidateRequired("Mock", data, "domain", "years", "nameservers", "contact", "auth_code")
		require.Error(t, err)

		regErr, ok := domain.AsRegistrarError(err)
		require.True(t, ok)
		fieldErrors := regErr.FieldErrors()
		assert.Len(t, fieldErrors, 3)
		assert.Contains(t, fieldErrors, "nameservers")
		assert.Contains(t, fieldErrors, "contact")
		assert.Contains(t, fieldErrors, "auth_code")
	})

	t.Run("AllPresent", func(t *testing.T) {
		data := map[string]any{"domain": "example.com", "years": 0}

		assert.NoError(t, ValidateRequired("Mock", data, "domain", "years"))
	})
}
