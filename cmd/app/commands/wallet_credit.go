package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	walletDomain "github.com/md-riaz/domaindesk/internal/wallet/domain"
	walletUseCase "github.com/md-riaz/domaindesk/internal/wallet/usecase"
)

// RunWalletCredit tops up a partner wallet through the ledger.
func RunWalletCredit(
	ctx context.Context,
	useCase walletUseCase.WalletUseCase,
	logger *slog.Logger,
	writer io.Writer,
	partnerIDStr, amountStr, description, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	partnerID, err := parseID("partner ID", partnerIDStr)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount: %s", amountStr)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got: %s", amountStr)
	}

	if description == "" {
		description = "Manual wallet top-up"
	}

	tx, err := useCase.Credit(ctx, walletDomain.Entry{
		PartnerID:   partnerID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	logger.Info("wallet credited",
		slog.String("partner_id", partnerID.String()),
		slog.String("transaction_id", tx.ID.String()),
		slog.String("amount", tx.Amount.StringFixed(2)),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"transaction_id": tx.ID.String(),
			"partner_id":     partnerID.String(),
			"amount":         tx.Amount.StringFixed(2),
			"balance_after":  tx.BalanceAfter.StringFixed(2),
		})
	}

	_, err = fmt.Fprintf(writer, "Credited %s to partner %s, balance is now %s\n",
		tx.Amount.StringFixed(2), partnerID, tx.BalanceAfter.StringFixed(2))
	return err
}
