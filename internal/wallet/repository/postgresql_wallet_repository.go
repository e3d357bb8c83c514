// Package repository implements wallet and ledger persistence.
//
// Debits are a single conditional UPDATE so concurrent charges can never drive a
// balance negative. PostgreSQL returns the new balance with RETURNING; MySQL checks
// RowsAffected and re-reads the balance inside the same transaction.
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

// PostgreSQLWalletRepository implements wallet persistence for PostgreSQL.
type PostgreSQLWalletRepository struct {
	db *sql.DB
}

// NewPostgreSQLWalletRepository creates a new PostgreSQL wallet repository.
func NewPostgreSQLWalletRepository(db *sql.DB) *PostgreSQLWalletRepository {
	return &PostgreSQLWalletRepository{db: db}
}

// GetByPartner returns the wallet of partnerID.
func (p *PostgreSQLWalletRepository) GetByPartner(
	ctx context.Context,
	partnerID uuid.UUID,
) (*walletDomain.Wallet, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, partner_id, balance, currency, created_at, updated_at
			  FROM wallets WHERE partner_id = $1`

	var wallet walletDomain.Wallet
	err := querier.QueryRowContext(ctx, query, partnerID).Scan(
		&wallet.ID,
		&wallet.PartnerID,
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
	return &wallet, nil
}

// Debit subtracts amount when the balance covers it.
func (p *PostgreSQLWalletRepository) Debit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE wallets SET balance = balance - $1, updated_at = $2
			  WHERE id = $3 AND balance >= $1
			  RETURNING balance`

	var balance decimal.Decimal
	err := querier.QueryRowContext(ctx, query, amount, time.Now().UTC(), walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, walletDomain.ErrInsufficientFunds
		}
		return decimal.Zero, apperrors.Wrap(err, "failed to debit wallet")
	}
	return balance, nil
}

// Credit adds amount to the balance.
func (p *PostgreSQLWalletRepository) Credit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE wallets SET balance = balance + $1, updated_at = $2
			  WHERE id = $3
			  RETURNING balance`

	var balance decimal.Decimal
	err := querier.QueryRowContext(ctx, query, amount, time.Now().UTC(), walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, walletDomain.ErrWalletNotFound
		}
		return decimal.Zero, apperrors.Wrap(err, "failed to credit wallet")
	}
	return balance, nil
}

// CreateTransaction appends a ledger entry.
func (p *PostgreSQLWalletRepository) CreateTransaction(ctx context.Context, tx *walletDomain.Transaction) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO wallet_transactions (id, wallet_id, partner_id, type, amount, balance_after,
			  description, reference_type, reference_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var referenceID any
	if tx.ReferenceID != nil {
		referenceID = *tx.ReferenceID
	}

	_, err := querier.ExecContext(
		ctx,
		query,
		tx.ID,
		tx.WalletID,
		tx.PartnerID,
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
func (p *PostgreSQLWalletRepository) ListTransactions(
	ctx context.Context,
	walletID uuid.UUID,
	offset, limit int,
) ([]*walletDomain.Transaction, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, wallet_id, partner_id, type, amount, balance_after, description,
			  reference_type, reference_id, created_at
			  FROM wallet_transactions WHERE wallet_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list wallet transactions")
	}
	defer func() {
		_ = rows.Close()
	}()

	var txs []*walletDomain.Transaction
	for rows.Next() {
		var (
			tx            walletDomain.Transaction
			txType        string
			referenceType sql.NullString
			referenceID   uuid.NullUUID
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.WalletID,
			&tx.PartnerID,
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
		tx.Type = walletDomain.TransactionType(txType)
		tx.ReferenceType = referenceType.String
		if referenceID.Valid {
			tx.ReferenceID = &referenceID.UUID
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate wallet transactions")
	}
	return txs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
