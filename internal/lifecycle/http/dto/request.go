// Package dto provides data transfer objects for the domain lifecycle API.
package dto

import (
	validation "github.com/jellydator/validation"
)

// MaxRenewalYears is the longest term a single renewal may buy.
const MaxRenewalYears = 10

// RenewDomainRequest contains the parameters for queueing a renewal.
// Years defaults to one when omitted.
type RenewDomainRequest struct {
	Years int  `json:"years"`
	Force bool `json:"force"`
}

// Validate checks if the renew request is valid.
func (r *RenewDomainRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Years,
			validation.Min(0),
			validation.Max(MaxRenewalYears),
		),
	)
}
