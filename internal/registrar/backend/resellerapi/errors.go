package resellerapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// maxErrorBodySize limits how much of an error response body is read.
const maxErrorBodySize = 1 << 20

// errorEnvelope is the API's error body.
type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// translateHTTPError maps a non-2xx response to a registrar error.
func translateHTTPError(registrar, operation, domainName string, resp *http.Response) *domain.RegistrarError {
	var envelope errorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	_ = json.Unmarshal(raw, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	rawBody := string(raw)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewAuthenticationFailed(registrar, message, rawBody)

	case resp.StatusCode == http.StatusNotFound || envelope.Error.Code == "domain_not_found":
		return domain.NewDomainNotFound(registrar, domainName, rawBody)

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		fields := envelope.Error.Fields
		if len(fields) == 0 {
			fields = map[string]string{"request": message}
		}
		return domain.NewValidationError(registrar, fields, rawBody)

	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewRateLimitExceeded(registrar, operation, parseRetryAfter(resp.Header.Get("Retry-After")))

	default:
		code := envelope.Error.Code
		if code == "" {
			code = "http_" + strconv.Itoa(resp.StatusCode)
		}
		return domain.NewUnknown(registrar, code, message, rawBody)
	}
}

func parseRetryAfter(value string) int {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
