package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

func TestRegistrarError_DetailsByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      *RegistrarError
		kind     ErrorKind
		wantKeys []string
	}{
		{"ConnectionFailed", NewConnectionFailed("Mock", fmt.Errorf("dial tcp: refused")), KindConnectionFailed, []string{"reason"}},
		{"AuthenticationFailed", NewAuthenticationFailed("Mock", "", nil), KindAuthenticationFailed, nil},
		{"RateLimitExceeded", NewRateLimitExceeded("Mock", "register", 42), KindRateLimitExceeded, []string{"operation", "retry_after"}},
		{"DomainNotFound", NewDomainNotFound("Mock", "example.com", nil), KindDomainNotFound, []string{"domain"}},
		{"ValidationError", NewValidationError("Mock", map[string]string{"domain": "required"}, nil), KindValidationError, []string{"errors"}},
		{"Timeout", NewTimeout("Mock", "renew", 30*time.Second, context.DeadlineExceeded), KindTimeout, []string{"operation", "timeout_seconds"}},
		{"Unknown", NewUnknown("Mock", "E1001", "order locked", nil), KindUnknown, []string{"message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, "Mock", tt.err.Registrar)
			assert.Len(t, tt.err.Details, len(tt.wantKeys))
			for _, key := range tt.wantKeys {
				assert.Contains(t, tt.err.Details, key)
			}
		})
	}
}

func TestRegistrarError_Accessors(t *testing.T) {
	rateErr := NewRateLimitExceeded("Mock", "register", 42)
	assert.Equal(t, 42, rateErr.RetryAfter())

	valErr := NewValidationError("Mock", map[string]string{"years": "required"}, nil)
	assert.Equal(t, map[string]string{"years": "required"}, valErr.FieldErrors())

	unknown := NewUnknown("Mock", "E1001", "order locked", nil)
	assert.Equal(t, "E1001", unknown.Code)
	assert.Contains(t, unknown.Error(), "[E1001]")
}

func TestRegistrarError_IsSentinels(t *testing.T) {
	assert.ErrorIs(t, NewValidationError("Mock", nil, nil), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, NewDomainNotFound("Mock", "example.com", nil), apperrors.ErrNotFound)
	assert.ErrorIs(t, NewRateLimitExceeded("Mock", "renew", 1), apperrors.ErrTooManyRequests)
	assert.ErrorIs(t, NewTimeout("Mock", "renew", time.Second, nil), apperrors.ErrUpstream)
	assert.ErrorIs(t, NewConnectionFailed("Mock", nil), apperrors.ErrUpstream)
	assert.NotErrorIs(t, NewTimeout("Mock", "renew", time.Second, nil), apperrors.ErrInvalidInput)
}

func TestRegistrarError_UnwrapsCause(t *testing.T) {
	err := NewTimeout("Mock", "renew", time.Second, context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKindOf(t *testing.T) {
	wrapped := apperrors.Wrap(NewDomainNotFound("Mock", "example.com", nil), "get info")

	assert.Equal(t, KindDomainNotFound, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(fmt.Errorf("plain")))
}
