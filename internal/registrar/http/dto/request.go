// Package dto provides data transfer objects for the registrar API.
package dto

import (
	"strings"

	validation "github.com/jellydator/validation"

	customValidation "github.com/md-riaz/domaindesk/internal/validation"
)

// DomainQuery names the domain a registrar lookup is about.
type DomainQuery struct {
	Domain string `form:"domain"`
}

// Normalize lowercases and trims the domain name.
func (q *DomainQuery) Normalize() {
	q.Domain = strings.ToLower(strings.TrimSpace(q.Domain))
}

// Validate checks if the domain query is valid.
func (q *DomainQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Domain,
			validation.Required,
			customValidation.DomainName,
		),
	)
}
