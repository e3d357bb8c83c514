package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// MySQLWalletRepository implements wallet persistence for MySQL.
type MySQLWalletRepository struct {
	db *sql.DB
}

// NewMySQLWalletRepository creates a new MySQL wallet repository.
func NewMySQLWalletRepository(db *sql.DB) *MySQLWalletRepository {
	return &MySQLWalletRepository{db: db}
}

// GetByPartner returns the wallet of partnerID.
func (m *MySQLWalletRepository) GetByPartner(
	ctx context.Context,
	partnerID uuid.UUID,
) (*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, m.db)

	partnerBytes, err := partnerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal partner id")
	}

	query := `SELECT id, partner_id, balance, currency, created_at, updated_at
			  FROM wallets WHERE partner_id = ?`

	var (
		wallet         walletDomain.Wallet
		id, partnerRaw []byte
	)
	err = querier.QueryRowContext(ctx, query, partnerBytes).Scan(
		&id,
		&partnerRaw,
		&wallet.Balance,
		&wallet.Currency,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, walletDomain.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get wallet")
	}

	if err := wallet.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal wallet id")
	}
	if err := wallet.PartnerID.UnmarshalBinary(partnerRaw); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal partner id")
	}
	return &wallet, nil
}

// Debit subtracts amount when the balance covers it.
func (m *MySQLWalletRepository) Debit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := walletID.MarshalBinary()
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to marshal wallet id")
	}

	query := `UPDATE wallets SET balance = balance - ?, updated_at = ?
			  WHERE id = ? AND balance >= ?`

	result, err := querier.ExecContext(ctx, query, amount, time.Now().UTC(), id, amount)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to debit wallet")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return decimal.Zero, walletDomain.ErrInsufficientFunds
	}

	return m.balance(ctx, querier, id)
}

// Credit adds amount to the balance.
func (m *MySQLWalletRepository) Credit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := walletID.MarshalBinary()
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to marshal wallet id")
	}

	query := `UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to credit wallet")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return decimal.Zero, walletDomain.ErrWalletNotFound
	}

	return m.balance(ctx, querier, id)
}

func (m *MySQLWalletRepository) balance(
	ctx context.Context,
	querier database.Querier,
	id []byte,
) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := querier.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE id = ?`, id).Scan(&balance)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err, "failed to read wallet balance")
	}
	return balance, nil
}

// CreateTransaction appends a ledger entry.
func (m *MySQLWalletRepository) CreateTransaction(ctx context.Context, tx *walletDomain.Transaction) error {
	querier := database.GetTx(ctx, m.db)

	id, err := tx.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal transaction id")
	}
	walletID, err := tx.WalletID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal wallet id")
	}
	partnerID, err := tx.PartnerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal partner id")
	}

	var referenceID any
	if tx.ReferenceID != nil {
		b, err := tx.ReferenceID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal reference id")
		}
		referenceID = b
	}

	query := `INSERT INTO wallet_transactions (id, wallet_id, partner_id, type, amount, balance_after,
			  description, reference_type, reference_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		walletID,
		partnerID,
		string(tx.Type),
		tx.Amount,
		tx.BalanceAfter,
		tx.Description,
		nullString(tx.ReferenceType),
		referenceID,
		tx.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create wallet transaction")
	}
	return nil
}

// ListTransactions returns the newest ledger entries first.
func (m *MySQLWalletRepository) ListTransactions(
	ctx context.Context,
	walletID uuid.UUID,
	offset, limit int,
) ([]*walletDomain.Transaction, error) {
	querier := database.GetTx(ctx, m.db)

	walletBytes, err := walletID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal wallet id")
	}

	query := `SELECT id, wallet_id, partner_id, type, amount, balance_after, description,
			  reference_type, reference_id, created_at
			  FROM wallet_transactions WHERE wallet_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, walletBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list wallet transactions")
	}
	defer func() {
		_ = rows.Close()
	}()

	var txs []*walletDomain.Transaction
	for rows.Next() {
		var (
			tx                     walletDomain.Transaction
			id, walletRaw, partner []byte
			txType                 string
			referenceType          sql.NullString
			referenceID            []byte
		)
		if err := rows.Scan(
			&id,
			&walletRaw,
			&partner,
			&txType,
			&tx.Amount,
			&tx.BalanceAfter,
			&tx.Description,
			&referenceType,
			&referenceID,
			&tx.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan wallet transaction")
		}
		if err := tx.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal transaction id")
		}
		if err := tx.WalletID.UnmarshalBinary(walletRaw); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal wallet id")
		}
		if err := tx.PartnerID.UnmarshalBinary(partner); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal partner id")
		}
		if len(referenceID) > 0 {
			var ref uuid.UUID
			if err := ref.UnmarshalBinary(referenceID); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal reference id")
			}
			tx.ReferenceID = &ref
		}
		tx.Type = walletDomain.TransactionType(txType)
		tx.ReferenceType = referenceType.String
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate wallet transactions")
	}
	return txs, nil
}
