// Package httputil renders API errors and parses shared query parameters.
package httputil

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means the error text is safe to echo
}

// Evaluated in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "The resource is not in a state that allows this operation"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", "You don't have permission to access this resource"},
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests", "Rate limit exceeded, retry later"},
	{apperrors.ErrUpstream, http.StatusBadGateway, "upstream_error", "The registrar could not complete the request"},
}

// retryAfterError is satisfied by registrar rate limit errors.
type retryAfterError interface {
	RetryAfter() int
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON response.
// Unknown errors become a 500 with no detail leaked to the client.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal_error", Message: "An internal error occurred"}

	for _, m := range errorMappings {
		if !apperrors.Is(err, m.target) {
			continue
		}
		status = m.status
		body = ErrorResponse{Error: m.code, Message: m.message}
		if m.message == "" {
			body.Message = err.Error()
		}
		break
	}

	if status == http.StatusTooManyRequests {
		var ra retryAfterError
		if apperrors.As(err, &ra) && ra.RetryAfter() > 0 {
			c.Header("Retry-After", strconv.Itoa(ra.RetryAfter()))
		}
	}

	if logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.Int("status_code", status),
			slog.String("error_code", body.Error),
			slog.Any("error", err),
		)
	}

	writeError(c, status, body)
}

// HandleBadRequestGin writes a 400 for malformed JSON or path parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.WarnContext(c.Request.Context(), "bad request", slog.Any("error", err))
	}
	writeError(c, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// HandleValidationErrorGin writes a 422 for request bodies that fail validation rules.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.WarnContext(c.Request.Context(), "validation failed", slog.Any("error", err))
	}
	writeError(c, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Message: err.Error()})
}

func writeError(c *gin.Context, status int, body ErrorResponse) {
	body.RequestID = requestid.Get(c)
	c.AbortWithStatusJSON(status, body)
}
