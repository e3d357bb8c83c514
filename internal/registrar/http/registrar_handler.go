// Package http provides HTTP handlers for registrar lookups.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/httputil"
	"github.com/md-riaz/domaindesk/internal/registrar/http/dto"
	registrarUseCase "github.com/md-riaz/domaindesk/internal/registrar/usecase"
	customValidation "github.com/md-riaz/domaindesk/internal/validation"
)

// RegistrarHandler handles HTTP requests against configured registrars.
type RegistrarHandler struct {
	registrarUseCase registrarUseCase.RegistrarUseCase
	logger           *slog.Logger
}

// NewRegistrarHandler creates a new registrar handler.
func NewRegistrarHandler(registrarUseCase registrarUseCase.RegistrarUseCase, logger *slog.Logger) *RegistrarHandler {
	return &RegistrarHandler{
		registrarUseCase: registrarUseCase,
		logger:           logger,
	}
}

// ListHandler lists registrar configurations.
// GET /v1/registrars
func (h *RegistrarHandler) ListHandler(c *gin.Context) {
	registrars, err := h.registrarUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRegistrarsToListResponse(registrars))
}

// AvailabilityHandler checks whether a domain can be registered.
// GET /v1/registrars/:registrar_id/availability?domain=example.com
func (h *RegistrarHandler) AvailabilityHandler(c *gin.Context) {
	registrarID, ok := h.parseRegistrarID(c)
	if !ok {
		return
	}

	var query dto.DomainQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	query.Normalize()

	if err := query.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	available, err := h.registrarUseCase.CheckAvailability(c.Request.Context(), registrarID, query.Domain)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{Domain: query.Domain, Available: available})
}

// InfoHandler returns the registrar's view of a domain.
// GET /v1/registrars/:registrar_id/domains/:domain
func (h *RegistrarHandler) InfoHandler(c *gin.Context) {
	registrarID, ok := h.parseRegistrarID(c)
	if !ok {
		return
	}

	query := dto.DomainQuery{Domain: c.Param("domain")}
	query.Normalize()

	if err := query.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.registrarUseCase.GetInfo(c.Request.Context(), registrarID, query.Domain)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResultToResponse(result))
}

// TestConnectionHandler verifies credentials and connectivity.
// POST /v1/registrars/:registrar_id/test
func (h *RegistrarHandler) TestConnectionHandler(c *gin.Context) {
	registrarID, ok := h.parseRegistrarID(c)
	if !ok {
		return
	}

	connected, err := h.registrarUseCase.TestConnection(c.Request.Context(), registrarID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionResponse{Connected: connected})
}

func (h *RegistrarHandler) parseRegistrarID(c *gin.Context) (uuid.UUID, bool) {
	registrarID, err := uuid.Parse(c.Param("registrar_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid registrar ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return registrarID, true
}
