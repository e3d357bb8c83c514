package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/metrics"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// walletUseCaseWithMetrics decorates WalletUseCase with metrics instrumentation.
type walletUseCaseWithMetrics struct {
	next    WalletUseCase
	metrics metrics.BusinessMetrics
}

// NewWalletUseCaseWithMetrics wraps a WalletUseCase with metrics recording.
func NewWalletUseCaseWithMetrics(useCase WalletUseCase, m metrics.BusinessMetrics) WalletUseCase {
	return &walletUseCaseWithMetrics{next: useCase, metrics: m}
}

func (w *walletUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	w.metrics.RecordOperation(ctx, "wallet", operation, status)
	w.metrics.RecordDuration(ctx, "wallet", operation, time.Since(start), status)
}

// Balance records metrics for balance lookups.
func (w *walletUseCaseWithMetrics) Balance(ctx context.Context, partnerID uuid.UUID) (*walletDomain.Wallet, error) {
	start := time.Now()
	wallet, err := w.next.Balance(ctx, partnerID)
	w.record(ctx, "balance", start, err)
	return wallet, err
}

// Debit records metrics for debits.
func (w *walletUseCaseWithMetrics) Debit(
	ctx context.Context,
	entry walletDomain.Entry,
) (*walletDomain.Transaction, error) {
	start := time.Now()
	tx, err := w.next.Debit(ctx, entry)
	w.record(ctx, "debit", start, err)
	return tx, err
}

// Credit records metrics for credits.
func (w *walletUseCaseWithMetrics) Credit(
	ctx context.Context,
	entry walletDomain.Entry,
) (*walletDomain.Transaction, error) {
	start := time.Now()
	tx, err := w.next.Credit(ctx, entry)
	w.record(ctx, "credit", start, err)
	return tx, err
}

// Refund records metrics for refunds.
func (w *walletUseCaseWithMetrics) Refund(
	ctx context.Context,
	entry walletDomain.Entry,
) (*walletDomain.Transaction, error) {
	start := time.Now()
	tx, err := w.next.Refund(ctx, entry)
	w.record(ctx, "refund", start, err)
	return tx, err
}

// ListTransactions records metrics for ledger listing.
func (w *walletUseCaseWithMetrics) ListTransactions(
	ctx context.Context,
	partnerID uuid.UUID,
	offset, limit int,
) ([]*walletDomain.Transaction, error) {
	start := time.Now()
	txs, err := w.next.ListTransactions(ctx, partnerID, offset, limit)
	w.record(ctx, "list_transactions", start, err)
	return txs, err
}
