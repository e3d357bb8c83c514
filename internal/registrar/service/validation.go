package service

import (
	"reflect"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/md-riaz/domaindesk/internal/registrar/domain"
	appvalidation "github.com/md-riaz/domaindesk/internal/validation"
)

// ValidateDomainName returns a ValidationError when name is empty or not hostname-shaped.
func ValidateDomainName(registrar, name string) error {
	err := validation.Validate(name, validation.Required, appvalidation.DomainName)
	if err == nil {
		return nil
	}
	return domain.NewValidationError(registrar, map[string]string{"domain": err.Error()}, nil)
}

// ValidateRequired collects every missing or blank field of data into one ValidationError.
func ValidateRequired(registrar string, data map[string]any, fields ...string) error {
	missing := make(map[string]string)
	for _, field := range fields {
		if isBlank(data[field]) {
			missing[field] = "The " + field + " field is required."
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return domain.NewValidationError(registrar, missing, nil)
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
