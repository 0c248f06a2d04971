package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/sitehub/internal/registry"
)

// HandleListSites returns all sites, newest first.
func (h *Handlers) HandleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.sites.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sites": sites,
		"total": len(sites),
	})
}

// HandleCreateSite creates a site from a JSON body.
func (h *Handlers) HandleCreateSite(w http.ResponseWriter, r *http.Request) {
	var input registry.SiteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if h.reserved[input.Subdomain] {
		writeJSONError(w, "subdomain is reserved", http.StatusBadRequest)
		return
	}

	site, err := h.sites.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

// HandleGetSite returns a site by id.
func (h *Handlers) HandleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// HandleUpdateSite patches a site and evicts its cached tenant config so
// the edit is visible immediately.
func (h *Handlers) HandleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.sites.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var input registry.SiteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if input.Subdomain != existing.Subdomain && h.reserved[input.Subdomain] {
		writeJSONError(w, "subdomain is reserved", http.StatusBadRequest)
		return
	}

	site, err := h.sites.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSite(r, existing.Subdomain, site.Subdomain, site.ID)
	writeJSON(w, http.StatusOK, site)
}

// HandleDeleteSite removes a site, its custom domains, its favicon blob,
// and its cached config.
func (h *Handlers) HandleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	site, err := h.sites.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	// Evict domain cache entries before their records disappear.
	ownedDomains, err := h.domains.ListForSite(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.domains.RemoveAllForSite(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if site.FaviconAssetID != "" && h.assets != nil {
		if err := h.assets.Delete(r.Context(), site.FaviconAssetID); err != nil {
			log.Printf("site %s: failed to release favicon blob %s: %v", id, site.FaviconAssetID, err)
		}
	}

	if err := h.sites.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.facade.InvalidateSubdomain(r.Context(), site.Subdomain)
	for _, d := range ownedDomains {
		h.facade.InvalidateDomain(r.Context(), d.Domain)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFaviconUploadURL mints a one-time direct upload URL for a
// favicon asset.
func (h *Handlers) HandleFaviconUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		writeJSONError(w, "asset storage not configured", http.StatusServiceUnavailable)
		return
	}

	if _, err := h.sites.GetByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ContentType == "" {
		writeJSONError(w, "content_type is required", http.StatusBadRequest)
		return
	}

	ticket, err := h.assets.PresignUpload(r.Context(), body.ContentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// invalidateSite evicts the cached config under the site's old and new
// subdomains and under each of its custom domains.
func (h *Handlers) invalidateSite(r *http.Request, oldSubdomain, newSubdomain, siteID string) {
	ctx := r.Context()
	if oldSubdomain != "" {
		h.facade.InvalidateSubdomain(ctx, oldSubdomain)
	}
	if newSubdomain != "" && newSubdomain != oldSubdomain {
		h.facade.InvalidateSubdomain(ctx, newSubdomain)
	}
	if siteID == "" {
		return
	}
	list, err := h.domains.ListForSite(ctx, siteID)
	if err != nil {
		log.Printf("site %s: failed to list domains for cache eviction: %v", siteID, err)
		return
	}
	for _, d := range list {
		h.facade.InvalidateDomain(ctx, d.Domain)
	}
}
