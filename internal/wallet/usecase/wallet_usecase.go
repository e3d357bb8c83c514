package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/md-riaz/domaindesk/internal/database"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

type walletUseCase struct {
	txManager  database.TxManager
	walletRepo WalletRepository
	now        func() time.Time
}

// NewWalletUseCase creates a WalletUseCase.
func NewWalletUseCase(txManager database.TxManager, walletRepo WalletRepository) WalletUseCase {
	return &walletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		now:        time.Now,
	}
}

func (w *walletUseCase) Balance(ctx context.Context, partnerID uuid.UUID) (*walletDomain.Wallet, error) {
	return w.walletRepo.GetByPartner(ctx, partnerID)
}

func (w *walletUseCase) Debit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return w.apply(ctx, walletDomain.TransactionDebit, entry)
}

func (w *walletUseCase) Credit(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return w.apply(ctx, walletDomain.TransactionCredit, entry)
}

func (w *walletUseCase) Refund(ctx context.Context, entry walletDomain.Entry) (*walletDomain.Transaction, error) {
	return w.apply(ctx, walletDomain.TransactionRefund, entry)
}

func (w *walletUseCase) ListTransactions(
	ctx context.Context,
	partnerID uuid.UUID,
	offset, limit int,
) ([]*walletDomain.Transaction, error) {
	wallet, err := w.walletRepo.GetByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return w.walletRepo.ListTransactions(ctx, wallet.ID, offset, limit)
}

// apply changes the balance and appends the ledger entry in one transaction.
func (w *walletUseCase) apply(
	ctx context.Context,
	txType walletDomain.TransactionType,
	entry walletDomain.Entry,
) (*walletDomain.Transaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, walletDomain.ErrInvalidAmount
	}

	var transaction *walletDomain.Transaction

	err := w.txManager.WithTx(ctx, func(ctx context.Context) error {
		wallet, err := w.walletRepo.GetByPartner(ctx, entry.PartnerID)
		if err != nil {
			return err
		}

		var balance decimal.Decimal
		if txType == walletDomain.TransactionDebit {
			balance, err = w.walletRepo.Debit(ctx, wallet.ID, entry.Amount)
		} else {
			balance, err = w.walletRepo.Credit(ctx, wallet.ID, entry.Amount)
		}
		if err != nil {
			return err
		}

		transaction = &walletDomain.Transaction{
			ID:           uuid.Must(uuid.NewV7()),
			WalletID:     wallet.ID,
			PartnerID:    entry.PartnerID,
			Type:         txType,
			Amount:       entry.Amount,
			BalanceAfter: balance,
			Description:  entry.Description,
			CreatedAt:    w.now().UTC(),
		}
		if entry.Reference != nil {
			refID := entry.Reference.ID
			transaction.ReferenceType = entry.Reference.Type
			transaction.ReferenceID = &refID
		}

		return w.walletRepo.CreateTransaction(ctx, transaction)
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}
