package domain

// Feature is an optional registrar capability.
type Feature string

const (
	FeatureDNS       Feature = "dns_management"
	FeaturePrivacy   Feature = "whois_privacy"
	FeatureLocking   Feature = "domain_locking"
	FeatureTransfers Feature = "transfers"
	FeatureAutoRenew Feature = "auto_renew"
)

// Features lists which optional capabilities a backend supports.
type Features struct {
	DNS       bool
	Privacy   bool
	Locking   bool
	Transfers bool
	AutoRenew bool
}

// Supports reports whether f is enabled.
func (f Features) Supports(feature Feature) bool {
	switch feature {
	case FeatureDNS:
		return f.DNS
	case FeaturePrivacy:
		return f.Privacy
	case FeatureLocking:
		return f.Locking
	case FeatureTransfers:
		return f.Transfers
	case FeatureAutoRenew:
		return f.AutoRenew
	default:
		return false
	}
}

// FeatureReporter is implemented by clients that know their backend's capabilities.
type FeatureReporter interface {
	Features() Features
}

// ClientSupports reports whether client supports feature. A client that does not
// report its capabilities is assumed to.
func ClientSupports(client Client, feature Feature) bool {
	reporter, ok := client.(FeatureReporter)
	if !ok {
		return true
	}
	return reporter.Features().Supports(feature)
}

// FeatureMatrix is the static capability table keyed by backend id.
var FeatureMatrix = map[string]Features{
	"mock": {
		DNS:       true,
		Privacy:   true,
		Locking:   true,
		Transfers: true,
		AutoRenew: true,
	},
	"resellerapi": {
		DNS:       true,
		Privacy:   true,
		Locking:   true,
		Transfers: true,
		AutoRenew: false,
	},
}

// FeaturesFor returns the capabilities of backend. Unknown backends support nothing optional.
func FeaturesFor(backend string) Features {
	return FeatureMatrix[backend]
}
