// Package http provides read-only HTTP handlers for partner wallets.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/httputil"
	"github.com/md-riaz/domaindesk/internal/wallet/http/dto"
	walletUseCase "github.com/md-riaz/domaindesk/internal/wallet/usecase"
)

// WalletHandler handles HTTP requests for partner wallets.
type WalletHandler struct {
	walletUseCase walletUseCase.WalletUseCase
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(walletUseCase walletUseCase.WalletUseCase, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
		logger:        logger,
	}
}

// BalanceHandler returns the wallet of a partner.
// GET /v1/partners/:partner_id/wallet
func (h *WalletHandler) BalanceHandler(c *gin.Context) {
	partnerID, ok := h.parsePartnerID(c)
	if !ok {
		return
	}

	wallet, err := h.walletUseCase.Balance(c.Request.Context(), partnerID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapWalletToResponse(wallet))
}

// ListTransactionsHandler returns ledger entries with pagination.
// GET /v1/partners/:partner_id/wallet/transactions?offset=0&limit=50
func (h *WalletHandler) ListTransactionsHandler(c *gin.Context) {
	partnerID, ok := h.parsePartnerID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	txs, err := h.walletUseCase.ListTransactions(c.Request.Context(), partnerID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTransactionsToListResponse(txs))
}

func (h *WalletHandler) parsePartnerID(c *gin.Context) (uuid.UUID, bool) {
	partnerID, err := uuid.Parse(c.Param("partner_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid partner ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return partnerID, true
}
