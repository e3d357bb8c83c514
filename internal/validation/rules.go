// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

const maxDomainLength = 253

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// domainRegex accepts hostname-shaped names with at least two labels and an
	// alphabetic or punycode TLD.
	domainRegex = regexp.MustCompile(
		`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+([a-z]{2,63}|xn--[a-z0-9-]{1,59})$`,
	)

	// tldRegex accepts a bare TLD such as "com" or "co.uk".
	tldRegex = regexp.MustCompile(`^(?i)[a-z0-9-]{2,63}(\.[a-z0-9-]{2,63})?$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// IsDomainName reports whether name is a syntactically valid domain name.
func IsDomainName(name string) bool {
	if name == "" || len(name) > maxDomainLength {
		return false
	}
	return domainRegex.MatchString(name)
}

// DomainName validates that a string is a registrable hostname-shaped domain name
var DomainName = validation.NewStringRuleWithError(
	IsDomainName,
	validation.NewError("validation_domain_name", "must be a valid domain name"),
)

// TLD validates a top-level domain without a leading dot
var TLD = validation.NewStringRuleWithError(
	func(s string) bool {
		return tldRegex.MatchString(s)
	},
	validation.NewError("validation_tld", "must be a valid top-level domain"),
)

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
