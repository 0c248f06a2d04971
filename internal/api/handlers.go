package api

import (
	"github.com/ignite/sitehub/internal/assets"
	"github.com/ignite/sitehub/internal/domains"
	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/tenant"
)

// Handlers bundles the services the HTTP layer fronts.
type Handlers struct {
	sites    *registry.SiteStore
	domains  *domains.Service
	facade   *tenant.Facade
	resolver *tenant.Resolver
	assets   assets.Store
	reserved map[string]bool
}

// NewHandlers creates the handler set. assetStore may be nil when no
// bucket is configured; favicon endpoints then degrade gracefully.
func NewHandlers(
	sites *registry.SiteStore,
	domainSvc *domains.Service,
	facade *tenant.Facade,
	resolver *tenant.Resolver,
	assetStore assets.Store,
	reservedSubdomains []string,
) *Handlers {
	reserved := make(map[string]bool, len(reservedSubdomains))
	for _, name := range reservedSubdomains {
		reserved[name] = true
	}
	return &Handlers{
		sites:    sites,
		domains:  domainSvc,
		facade:   facade,
		resolver: resolver,
		assets:   assetStore,
		reserved: reserved,
	}
}
