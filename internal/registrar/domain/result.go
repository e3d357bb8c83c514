// Package domain defines the registrar integration model: the operation result envelope,
// the registrar error taxonomy, the client contract and registrar configuration records.
package domain

import (
	"encoding/json"
	"maps"
)

// DefaultErrorMessage is used when a failed result is built without a message or errors.
const DefaultErrorMessage = "registrar operation failed"

// OperationResult is the envelope every registrar operation returns. It is immutable:
// accessors return copies of the underlying maps.
type OperationResult struct {
	success     bool
	data        map[string]any
	message     string
	errors      map[string]string
	registrar   string
	rawResponse any
}

// NewSuccessResult builds a successful result stamped with the registrar name.
func NewSuccessResult(registrar string, data map[string]any, message string, raw any) *OperationResult {
	return &OperationResult{
		success:     true,
		data:        cloneData(data),
		message:     message,
		errors:      map[string]string{},
		registrar:   registrar,
		rawResponse: raw,
	}
}

// NewErrorResult builds a failed result stamped with the registrar name. A failed
// result always carries a message or at least one error.
func NewErrorResult(registrar, message string, errs map[string]string, raw any) *OperationResult {
	if message == "" && len(errs) == 0 {
		message = DefaultErrorMessage
	}

	cloned := maps.Clone(errs)
	if cloned == nil {
		cloned = map[string]string{}
	}

	return &OperationResult{
		success:     false,
		data:        map[string]any{},
		message:     message,
		errors:      cloned,
		registrar:   registrar,
		rawResponse: raw,
	}
}

// Success reports whether the operation succeeded.
func (r *OperationResult) Success() bool { return r.success }

// Data returns a copy of the result payload.
func (r *OperationResult) Data() map[string]any { return cloneData(r.data) }

// Get returns a single payload value.
func (r *OperationResult) Get(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// String returns a payload value as a string, or "" when absent or not a string.
func (r *OperationResult) String(key string) string {
	v, _ := r.data[key].(string)
	return v
}

// Message returns the human-readable message.
func (r *OperationResult) Message() string { return r.message }

// Errors returns a copy of the field errors.
func (r *OperationResult) Errors() map[string]string { return maps.Clone(r.errors) }

// RegistrarName returns the name of the registrar that produced the result.
func (r *OperationResult) RegistrarName() string { return r.registrar }

// RawResponse returns the registrar's raw response, if kept.
func (r *OperationResult) RawResponse() any { return r.rawResponse }

type resultJSON struct {
	Success       bool              `json:"success"`
	Data          map[string]any    `json:"data"`
	Message       string            `json:"message,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	RegistrarName string            `json:"registrar_name"`
	RawResponse   any               `json:"raw_response,omitempty"`
}

// MarshalJSON encodes the result for caches and API responses.
func (r *OperationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Success:       r.success,
		Data:          r.data,
		Message:       r.message,
		Errors:        r.errors,
		RegistrarName: r.registrar,
		RawResponse:   r.rawResponse,
	})
}

// UnmarshalJSON decodes a result previously produced by MarshalJSON.
func (r *OperationResult) UnmarshalJSON(b []byte) error {
	var v resultJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	if v.Success {
		*r = *NewSuccessResult(v.RegistrarName, v.Data, v.Message, v.RawResponse)
		return nil
	}
	*r = *NewErrorResult(v.RegistrarName, v.Message, v.Errors, v.RawResponse)
	return nil
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return maps.Clone(data)
}
