package service

import "strings"

// Redacted replaces sensitive parameter values in logs and audit metadata.
const Redacted = "[REDACTED]"

// Keys are matched after normalizeKey.
var sensitiveKeys = map[string]struct{}{
	"api_key":             {},
	"apikey":              {},
	"x_api_key":           {},
	"password":            {},
	"passwd":              {},
	"auth_code":           {},
	"authcode":            {},
	"epp_code":            {},
	"secret":              {},
	"api_secret":          {},
	"token":               {},
	"access_token":        {},
	"refresh_token":       {},
	"client_secret":       {},
	"authorization":       {},
	"proxy_authorization": {},
}

var keyNormalizer = strings.NewReplacer("-", "_", " ", "_")

// normalizeKey folds header and query spellings (X-Api-Key, api-key) onto the
// snake_case form.
func normalizeKey(key string) string {
	return keyNormalizer.Replace(strings.ToLower(strings.TrimSpace(key)))
}

// IsSensitiveKey reports whether values stored under key must never be logged.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// Sanitize returns a copy of params with sensitive values replaced by Redacted.
// Nested maps and slices of maps are sanitized recursively; params is never modified.
func Sanitize(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	out := make(map[string]any, len(params))
	for key, value := range params {
		if IsSensitiveKey(key) {
			out[key] = Redacted
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Sanitize(v)
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, s := range v {
			if IsSensitiveKey(key) {
				out[key] = Redacted
				continue
			}
			out[key] = s
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return value
	}
}
