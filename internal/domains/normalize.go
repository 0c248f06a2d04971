package domains

import (
	"strings"

	"github.com/ignite/sitehub/internal/registry"
)

// NormalizeDomain canonicalizes user-supplied domain input: lowercase,
// scheme/path/port stripped, trailing dot removed. A value with no dot
// left is not a dotted hostname and is rejected.
func NormalizeDomain(raw string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(raw))

	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimSuffix(domain, ".")

	if !strings.Contains(domain, ".") {
		return "", registry.NewValidationError("domain", "%q is not a valid domain name", raw)
	}
	if err := validateDomainLabels(domain); err != nil {
		return "", err
	}
	return domain, nil
}

// validateDomainLabels checks hostname label rules: non-empty labels up
// to 63 characters, alphanumeric with interior hyphens.
func validateDomainLabels(domain string) error {
	if len(domain) > 253 {
		return registry.NewValidationError("domain", "name too long (max 253 characters)")
	}

	for _, part := range strings.Split(domain, ".") {
		if len(part) == 0 {
			return registry.NewValidationError("domain", "empty label")
		}
		if len(part) > 63 {
			return registry.NewValidationError("domain", "label too long (max 63 characters)")
		}
		if part[0] == '-' || part[len(part)-1] == '-' {
			return registry.NewValidationError("domain", "labels cannot start or end with hyphen")
		}
		for _, c := range part {
			if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-') {
				return registry.NewValidationError("domain", "invalid character %q", c)
			}
		}
	}
	return nil
}

// IsApex reports whether a domain has exactly two labels (example.com
// yes, app.example.com no).
func IsApex(domain string) bool {
	return strings.Count(domain, ".") == 1
}
