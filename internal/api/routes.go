package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the admin dashboard runs on its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://admin.siteshub.dev", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HandleHealth)

	// Legacy favicon path, rewritten to the Host-resolved dynamic endpoint
	r.Get("/favicon.ico", h.HandleTenantFavicon)

	r.Route("/api", func(r chi.Router) {
		// Tenant-facing reads
		r.Get("/tenants/favicon", h.HandleTenantFavicon)
		r.Get("/tenants/by-domain", h.HandleGetTenantByDomain)
		r.Get("/tenants/{subdomain}", h.HandleGetTenant)

		// Site admin
		r.Get("/sites", h.HandleListSites)
		r.Post("/sites", h.HandleCreateSite)
		r.Get("/sites/{id}", h.HandleGetSite)
		r.Put("/sites/{id}", h.HandleUpdateSite)
		r.Delete("/sites/{id}", h.HandleDeleteSite)
		r.Post("/sites/{id}/favicon-upload-url", h.HandleFaviconUploadURL)

		// Custom domain lifecycle
		r.Get("/sites/{id}/domains", h.HandleListDomains)
		r.Post("/sites/{id}/domains", h.HandleCreateDomain)
		r.Post("/domains/{id}/refresh", h.HandleRefreshDomain)
		r.Delete("/domains/{id}", h.HandleRemoveDomain)
	})

	return r
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
