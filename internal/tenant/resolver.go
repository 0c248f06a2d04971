package tenant

import (
	"net"
	"strings"
)

// Ref kinds. A subdomain ref points at a tenant under a wildcard root;
// a domain ref must be resolved through the custom domain registry.
const (
	RefSubdomain = "subdomain"
	RefDomain    = "domain"
)

// Ref identifies a tenant resolved from a request host header.
type Ref struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Resolver extracts tenant subdomains from inbound host headers by
// matching them against the platform's wildcard root domains. Roots are
// matched in order; first match wins, so callers should not configure
// roots that are suffixes of each other.
type Resolver struct {
	roots []string
}

// NewResolver creates a resolver for the given wildcard roots. Roots are
// normalized to lowercase once up front.
func NewResolver(roots []string) *Resolver {
	normalized := make([]string, 0, len(roots))
	for _, r := range roots {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			normalized = append(normalized, r)
		}
	}
	return &Resolver{roots: normalized}
}

// Resolve turns a host header into a subdomain ref, or nil when the host
// does not sit under any configured wildcard root. A bare root never
// resolves: serving the root itself is default content, not a tenant.
// Hosts that match no root are candidates for a custom domain lookup,
// which is the facade's job, not the resolver's.
func (r *Resolver) Resolve(hostHeader string) *Ref {
	host := NormalizeHost(hostHeader)
	if host == "" {
		return nil
	}

	for _, root := range r.roots {
		if host == root {
			return nil
		}
		if strings.HasSuffix(host, "."+root) {
			remainder := strings.TrimSuffix(host, "."+root)
			// Deeper labels are discarded: a.b under root resolves to a.
			sub := strings.SplitN(remainder, ".", 2)[0]
			if sub == "" {
				return nil
			}
			return &Ref{Kind: RefSubdomain, Value: sub}
		}
	}

	return nil
}

// IsRoot reports whether the host is exactly one of the wildcard roots.
func (r *Resolver) IsRoot(hostHeader string) bool {
	host := NormalizeHost(hostHeader)
	for _, root := range r.roots {
		if host == root {
			return true
		}
	}
	return false
}

// NormalizeHost strips an optional port suffix and trailing dot, and
// lowercases the host.
func NormalizeHost(hostHeader string) string {
	host := strings.ToLower(strings.TrimSpace(hostHeader))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
