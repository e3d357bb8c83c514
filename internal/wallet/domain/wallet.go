// Package domain defines the prepaid balance ledger of a partner.
//
// A wallet balance never goes negative. Every balance change is paired with an
// append-only Transaction recording the amount and the balance after the change.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
	TransactionRefund TransactionType = "refund"
)

// Wallet is the prepaid balance of a partner.
type Wallet struct {
	ID        uuid.UUID
	PartnerID uuid.UUID
	Balance   decimal.Decimal
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the balance can pay amount.
func (w *Wallet) Covers(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID            uuid.UUID
	WalletID      uuid.UUID
	PartnerID     uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
	CreatedAt     time.Time
}

// Reference ties a ledger entry to the entity that caused it, e.g. a domain renewal.
type Reference struct {
	Type string
	ID   uuid.UUID
}

// Entry describes a balance change requested by a caller.
type Entry struct {
	PartnerID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	Reference   *Reference
}
