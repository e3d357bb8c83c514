// Package dto provides data transfer objects for the wallet API.
package dto

import (
	"time"

	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
)

// WalletResponse represents a partner wallet. Amounts are decimal strings.
type WalletResponse struct {
	ID        string    `json:"id"`
	PartnerID string    `json:"partner_id"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapWalletToResponse converts a wallet to an API response.
func MapWalletToResponse(w *walletDomain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		PartnerID: w.PartnerID.String(),
		Balance:   w.Balance.StringFixed(2),
		Currency:  w.Currency,
		UpdatedAt: w.UpdatedAt,
	}
}

// TransactionResponse represents a ledger entry.
type TransactionResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	Description   string    `json:"description"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListTransactionsResponse is a page of ledger entries, newest first.
type ListTransactionsResponse struct {
	Data []TransactionResponse `json:"data"`
}

// MapTransactionsToListResponse converts ledger entries to a list API response.
func MapTransactionsToListResponse(txs []*walletDomain.Transaction) ListTransactionsResponse {
	data := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		item := TransactionResponse{
			ID:            tx.ID.String(),
			Type:          string(tx.Type),
			Amount:        tx.Amount.StringFixed(2),
			BalanceAfter:  tx.BalanceAfter.StringFixed(2),
			Description:   tx.Description,
			ReferenceType: tx.ReferenceType,
			CreatedAt:     tx.CreatedAt,
		}
		if tx.ReferenceID != nil {
			id := tx.ReferenceID.String()
			item.ReferenceID = &id
		}
		data = append(data, item)
	}
	return ListTransactionsResponse{Data: data}
}
