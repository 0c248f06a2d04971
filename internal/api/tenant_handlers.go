package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/sitehub/internal/domains"
	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/tenant"
)

// HandleGetTenant serves the public config for a subdomain tenant.
func (h *Handlers) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	subdomain := strings.ToLower(chi.URLParam(r, "subdomain"))

	if h.reserved[subdomain] {
		writeJSONError(w, "subdomain is reserved", http.StatusBadRequest)
		return
	}
	if err := registry.ValidateSubdomain(subdomain); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.facade.GetBySubdomain(r.Context(), subdomain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleGetTenantByDomain serves the public config for a custom domain
// given as the ?domain query parameter.
func (h *Handlers) HandleGetTenantByDomain(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("domain")
	if raw == "" {
		writeJSONError(w, "domain query parameter is required", http.StatusBadRequest)
		return
	}

	domain, err := domains.NormalizeDomain(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.facade.GetByDomain(r.Context(), domain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleTenantFavicon resolves the request's Host header to a tenant and
// redirects to its favicon, or answers 204 when none is configured. The
// legacy /favicon.ico path lands here too.
func (h *Handlers) HandleTenantFavicon(w http.ResponseWriter, r *http.Request) {
	cfg := h.resolveHost(r)
	if cfg == nil || cfg.FaviconURL == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, cfg.FaviconURL, http.StatusFound)
}

// resolveHost turns the request host into a tenant config: wildcard
// subdomain first, custom domain lookup as the fallback. Returns nil for
// unresolvable hosts; favicon callers treat that as "no favicon".
func (h *Handlers) resolveHost(r *http.Request) *tenant.SiteConfig {
	host := r.Host
	if ref := h.resolver.Resolve(host); ref != nil {
		cfg, err := h.facade.GetByRef(r.Context(), ref)
		if err == nil {
			return cfg
		}
		return nil
	}

	if h.resolver.IsRoot(host) {
		return nil
	}
	normalized := tenant.NormalizeHost(host)
	if normalized == "" {
		return nil
	}
	cfg, err := h.facade.GetByDomain(r.Context(), normalized)
	if err != nil {
		return nil
	}
	return cfg
}
