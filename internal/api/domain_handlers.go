package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HandleListDomains returns a site's custom domains, apex before www.
func (h *Handlers) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "id")

	if _, err := h.sites.GetByID(r.Context(), siteID); err != nil {
		writeError(w, err)
		return
	}

	list, err := h.domains.ListForSite(r.Context(), siteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domains": list,
		"total":   len(list),
	})
}

// HandleCreateDomain attaches a custom domain to a site, optionally with
// a www redirect sibling. A provider config fetch failure still leaves
// an error-state record behind; the response surfaces both.
func (h *Handlers) HandleCreateDomain(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "id")

	if _, err := h.sites.GetByID(r.Context(), siteID); err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Domain          string `json:"domain"`
		RedirectFromWww bool   `json:"redirect_from_www"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.domains.CreateForSite(r.Context(), siteID, body.Domain, body.RedirectFromWww)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HandleRefreshDomain re-checks a domain's DNS state with the provider.
func (h *Handlers) HandleRefreshDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.domains.RefreshStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.facade.InvalidateDomain(r.Context(), d.Domain)
	writeJSON(w, http.StatusOK, d)
}

// HandleRemoveDomain detaches a domain from the provider and deletes the
// local record. Unknown ids succeed; removal is idempotent.
func (h *Handlers) HandleRemoveDomain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Evict the cache entry while the record still exists.
	if d, err := h.domains.Get(r.Context(), id); err == nil {
		h.facade.InvalidateDomain(r.Context(), d.Domain)
	}

	if err := h.domains.RemoveFromProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
