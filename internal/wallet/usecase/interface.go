// Package usecase defines the wallet ledger operations.
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// WalletRepository defines persistence operations for wallets and their ledger.
// Implementations must support transaction-aware operations via context propagation.
type WalletRepository interface {
	// GetByPartner returns the wallet of partnerID. Returns ErrWalletNotFound if none exists.
	GetByPartner(ctx context.Context, partnerID uuid.UUID) (*walletDomain.Wallet, error)

	// Debit subtracts amount only when the balance covers it, in a single conditional
	// update. Returns the new balance, or ErrInsufficientFunds when nothing was changed.
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// Credit adds amount and returns the new balance.
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// CreateTransaction appends a ledger entry.
	CreateTransaction(ctx context.Context, tx *walletDomain.Transaction) error

	// ListTransactions returns the newest ledger entries of a wallet first.
	ListTransactions(
		ctx context.Context,
		walletID uuid.UUID,
		offset, limit int,
	) ([]*walletDomain.Transaction, error)
}

// WalletUseCase moves money in and out of partner wallets. Every balance change and
// its ledger entry are committed together.
type WalletUseCase interface {
	Balance(ctx context.Context, partnerID uuid.UUID) (*walletDomain.Wallet, error)

	// Debit charges the partner. Returns ErrWalletNotFound or ErrInsufficientFunds
	// without touching the ledger when the charge cannot be made.
	Debit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error)

	// Credit tops up the partner's balance.
	Credit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error)

	// Refund returns a previous debit to the partner.
	Refund(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error)

	ListTransactions(
		ctx context.Context,
		partnerID uuid.UUID,
		offset, limit int,
	) ([]*walletDomain.Transaction, error)
}
