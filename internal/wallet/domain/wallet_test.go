package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

func TestWallet_Covers(t *testing.T) {
	wallet := &Wallet{Balance: decimal.RequireFromString("10.00")}

	tests := []struct {
		amount string
		want   bool
	}{
		{"9.99", true},
		{"10.00", true},
		{"10.01", false},
		{"15.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, wallet.Covers(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, ErrWalletNotFound, apperrors.ErrNotFound)
	assert.ErrorIs(t, ErrInsufficientFunds, apperrors.ErrConflict)
	assert.ErrorIs(t, ErrInvalidAmount, apperrors.ErrInvalidInput)
}
