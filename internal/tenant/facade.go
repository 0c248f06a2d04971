package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/sitehub/internal/registry"
)

// SiteConfig is the public projection of a site served to tenant
// traffic. Internal fields like the favicon asset id never leave the
// facade; the favicon is resolved to a URL at read time.
type SiteConfig struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	FaviconURL     string `json:"faviconUrl,omitempty"`
}

// FaviconResolver turns a stored asset id into a servable URL. An empty
// string means the asset is absent or its blob was deleted.
type FaviconResolver interface {
	URLFor(assetID string) string
}

// Facade answers tenant config lookups with a short-lived redis cache in
// front of the registry. Stale entries within the hard TTL are served
// immediately and refreshed in the background; a dead cache degrades to
// direct registry reads.
type Facade struct {
	sites    *registry.SiteStore
	domains  *registry.DomainStore
	favicons FaviconResolver
	redis    *redis.Client
	ttl      time.Duration
	stale    time.Duration
}

// NewFacade creates a facade. redisClient may be nil, in which case every
// lookup goes straight to the registry.
func NewFacade(sites *registry.SiteStore, domains *registry.DomainStore, favicons FaviconResolver, redisClient *redis.Client, ttl, stale time.Duration) *Facade {
	return &Facade{
		sites:    sites,
		domains:  domains,
		favicons: favicons,
		redis:    redisClient,
		ttl:      ttl,
		stale:    stale,
	}
}

type cacheEnvelope struct {
	Config    SiteConfig `json:"config"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func subdomainKey(subdomain string) string { return "tenant:sub:" + subdomain }
func domainKey(domain string) string       { return "tenant:dom:" + domain }

// GetByRef resolves a tenant ref to its public config.
func (f *Facade) GetByRef(ctx context.Context, ref *Ref) (*SiteConfig, error) {
	if ref == nil {
		return nil, registry.ErrNotFound
	}
	switch ref.Kind {
	case RefSubdomain:
		return f.GetBySubdomain(ctx, ref.Value)
	case RefDomain:
		return f.GetByDomain(ctx, ref.Value)
	default:
		return nil, fmt.Errorf("unknown tenant ref kind: %s", ref.Kind)
	}
}

// GetBySubdomain returns the public config for the site owning the
// subdomain, or registry.ErrNotFound.
func (f *Facade) GetBySubdomain(ctx context.Context, subdomain string) (*SiteConfig, error) {
	return f.cached(ctx, subdomainKey(subdomain), func(ctx context.Context) (*SiteConfig, error) {
		site, err := f.sites.GetBySubdomain(ctx, subdomain)
		if err != nil {
			return nil, err
		}
		return f.project(site), nil
	})
}

// GetByDomain returns the public config for the site owning the exact
// custom domain string, or registry.ErrNotFound when either the domain
// or its site is missing.
func (f *Facade) GetByDomain(ctx context.Context, domain string) (*SiteConfig, error) {
	return f.cached(ctx, domainKey(domain), func(ctx context.Context) (*SiteConfig, error) {
		cd, err := f.domains.GetByDomain(ctx, domain)
		if err != nil {
			return nil, err
		}
		site, err := f.sites.GetByID(ctx, cd.SiteID)
		if err != nil {
			return nil, err
		}
		return f.project(site), nil
	})
}

// InvalidateSubdomain evicts the cached config for a subdomain so an
// admin edit is visible on the next read.
func (f *Facade) InvalidateSubdomain(ctx context.Context, subdomain string) {
	f.evict(ctx, subdomainKey(subdomain))
}

// InvalidateDomain evicts the cached config for a custom domain.
func (f *Facade) InvalidateDomain(ctx context.Context, domain string) {
	f.evict(ctx, domainKey(domain))
}

func (f *Facade) evict(ctx context.Context, key string) {
	if f.redis == nil {
		return
	}
	if err := f.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		log.Printf("Warning: failed to evict tenant cache key %s: %v", key, err)
	}
}

// cached serves a config from redis when fresh, serves stale entries
// while refreshing in the background, and falls through to load on a
// miss or a cache failure.
func (f *Facade) cached(ctx context.Context, key string, load func(context.Context) (*SiteConfig, error)) (*SiteConfig, error) {
	if f.redis == nil {
		return load(ctx)
	}

	data, err := f.redis.Get(ctx, key).Bytes()
	if err == nil {
		var env cacheEnvelope
		if jsonErr := json.Unmarshal(data, &env); jsonErr == nil {
			if time.Since(env.FetchedAt) > f.stale {
				go f.refresh(key, load)
			}
			cfg := env.Config
			return &cfg, nil
		}
		// Unreadable entry, treat as a miss.
		f.evict(ctx, key)
	} else if err != redis.Nil {
		log.Printf("Warning: tenant cache read failed for %s, falling back to registry: %v", key, err)
		return load(ctx)
	}

	cfg, err := load(ctx)
	if err != nil {
		return nil, err
	}
	f.store(ctx, key, cfg)
	return cfg, nil
}

// refresh reloads a stale entry outside the request path.
func (f *Facade) refresh(key string, load func(context.Context) (*SiteConfig, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := load(ctx)
	if err != nil {
		if err != registry.ErrNotFound {
			log.Printf("Warning: background refresh failed for %s: %v", key, err)
			return
		}
		// The site disappeared; drop the stale entry rather than
		// serving it until the hard TTL.
		f.evict(ctx, key)
		return
	}
	f.store(ctx, key, cfg)
}

func (f *Facade) store(ctx context.Context, key string, cfg *SiteConfig) {
	env := cacheEnvelope{Config: *cfg, FetchedAt: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := f.redis.Set(ctx, key, data, f.ttl).Err(); err != nil {
		log.Printf("Warning: failed to cache tenant config for %s: %v", key, err)
	}
}

func (f *Facade) project(site *registry.Site) *SiteConfig {
	cfg := &SiteConfig{
		Name:           site.Name,
		Subdomain:      site.Subdomain,
		Title:          site.Title,
		Description:    site.Description,
		PrimaryColor:   site.PrimaryColor,
		SecondaryColor: site.SecondaryColor,
	}
	if site.FaviconAssetID != "" && f.favicons != nil {
		cfg.FaviconURL = f.favicons.URLFor(site.FaviconAssetID)
	}
	return cfg
}
