package domain

import (
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

// Wallet errors.
var (
	// ErrWalletNotFound indicates the partner has no wallet.
	ErrWalletNotFound = apperrors.Wrap(apperrors.ErrNotFound, "wallet not found")

	// ErrInsufficientFunds indicates the balance cannot cover a debit.
	ErrInsufficientFunds = apperrors.Wrap(apperrors.ErrConflict, "insufficient funds")

	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = apperrors.Wrap(apperrors.ErrInvalidInput, "amount must be positive")
)
