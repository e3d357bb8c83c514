package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   map[string]any
	}{
		{
			name:   "nil params",
			params: nil,
			want:   nil,
		},
		{
			name:   "non sensitive keys are preserved",
			params: map[string]any{"domain": "example.com", "years": 2},
			want:   map[string]any{"domain": "example.com", "years": 2},
		},
		{
			name: "sensitive keys are redacted case insensitively",
			params: map[string]any{
				"API_KEY":   "abc",
				"Password":  "hunter2",
				"auth_code": "EPP-123",
				"domain":    "example.com",
			},
			want: map[string]any{
				"API_KEY":   Redacted,
				"Password":  Redacted,
				"auth_code": Redacted,
				"domain":    "example.com",
			},
		},
		{
			name: "header style keys are redacted",
			params: map[string]any{
				"api-key":       "abc",
				"X-Api-Key":     "abc",
				"Authorization": "Bearer t",
				"auth-code":     "EPP-123",
				"content-type":  "application/json",
			},
			want: map[string]any{
				"api-key":       Redacted,
				"X-Api-Key":     Redacted,
				"Authorization": Redacted,
				"auth-code":     Redacted,
				"content-type":  "application/json",
			},
		},
		{
			name: "nested maps are sanitized",
			params: map[string]any{
				"credentials": map[string]any{"api_key": "abc", "reseller_id": "42"},
				"headers":     map[string]string{"token": "t", "accept": "json"},
			},
			want: map[string]any{
				"credentials": map[string]any{"api_key": Redacted, "reseller_id": "42"},
				"headers":     map[string]any{"token": Redacted, "accept": "json"},
			},
		},
		{
			name: "slices of maps are sanitized",
			params: map[string]any{
				"items": []any{map[string]any{"secret": "s", "id": 1}, "plain"},
			},
			want: map[string]any{
				"items": []any{map[string]any{"secret": Redacted, "id": 1}, "plain"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.params))
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, key := range []string{"api_key", "API-KEY", "x-api-key", "authorization", "Proxy-Authorization", " token "} {
		assert.True(t, IsSensitiveKey(key), key)
	}
	for _, key := range []string{"domain", "reseller_id", "x-request-id", "auth"} {
		assert.False(t, IsSensitiveKey(key), key)
	}
}

func TestSanitize_DoesNotModifyInput(t *testing.T) {
	params := map[string]any{
		"api_key": "abc",
		"nested":  map[string]any{"password": "p"},
	}

	_ = Sanitize(params)

	assert.Equal(t, "abc", params["api_key"])
	assert.Equal(t, "p", params["nested"].(map[string]any)["password"])
}
