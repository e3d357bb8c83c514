// Package http provides HTTP handlers for queueing domain lifecycle work.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/httputil"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	"github.com/md-riaz/domaindesk/internal/lifecycle/http/dto"
	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
	customValidation "github.com/md-riaz/domaindesk/internal/validation"
)

// DomainHandler handles HTTP requests for partner domains.
type DomainHandler struct {
	domainUseCase lifecycleUseCase.DomainUseCase
	logger        *slog.Logger
}

// NewDomainHandler creates a new domain handler with required dependencies.
func NewDomainHandler(domainUseCase lifecycleUseCase.DomainUseCase, logger *slog.Logger) *DomainHandler {
	return &DomainHandler{
		domainUseCase: domainUseCase,
		logger:        logger,
	}
}

// GetHandler retrieves a domain of a partner.
// GET /v1/partners/:partner_id/domains/:domain_id
func (h *DomainHandler) GetHandler(c *gin.Context) {
	partnerID, domainID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	d, err := h.domainUseCase.Get(c.Request.Context(), partnerID, domainID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDomainToResponse(d))
}

// RegisterHandler queues the registration of a pending domain.
// POST /v1/partners/:partner_id/domains/:domain_id/register
// Returns 202 Accepted with the job id.
func (h *DomainHandler) RegisterHandler(c *gin.Context) {
	partnerID, domainID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	job, err := h.domainUseCase.EnqueueRegistration(c.Request.Context(), partnerID, domainID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapJobToResponse(job))
}

// RenewHandler queues a renewal. An empty body renews for one year.
// POST /v1/partners/:partner_id/domains/:domain_id/renew
// Returns 202 Accepted with the job id.
func (h *DomainHandler) RenewHandler(c *gin.Context) {
	partnerID, domainID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req dto.RenewDomainRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	job, err := h.domainUseCase.EnqueueRenewal(c.Request.Context(), lifecycleDomain.RenewalPayload{
		DomainID:  domainID,
		PartnerID: partnerID,
		Years:     req.Years,
		Force:     req.Force,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapJobToResponse(job))
}

func (h *DomainHandler) parseIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	partnerID, err := uuid.Parse(c.Param("partner_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid partner ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, uuid.Nil, false
	}

	domainID, err := uuid.Parse(c.Param("domain_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid domain ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, uuid.Nil, false
	}

	return partnerID, domainID, true
}
