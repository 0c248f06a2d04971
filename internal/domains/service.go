package domains

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/vercel"
)

// Provider is the subset of the external domain API the lifecycle
// workflows call. *vercel.Client satisfies it.
type Provider interface {
	AddProjectDomain(ctx context.Context, domain, redirectTo string) (string, error)
	GetDomainConfig(ctx context.Context, domain string) (*vercel.DomainConfig, error)
	RemoveProjectDomain(ctx context.Context, domain string) error
}

// Service coordinates the provider and the registry through the custom
// domain attach/refresh/remove workflows. It holds no state of its own:
// a crash mid-workflow leaves the registry reflecting whichever steps
// completed.
type Service struct {
	store    *registry.DomainStore
	provider Provider
}

// NewService creates a new lifecycle Service.
func NewService(store *registry.DomainStore, provider Provider) *Service {
	return &Service{store: store, provider: provider}
}

// CreateResult carries the records created by an attach workflow. Www is
// nil unless redirectFromWww was requested.
type CreateResult struct {
	Apex *registry.CustomDomain `json:"apex"`
	Www  *registry.CustomDomain `json:"www,omitempty"`
}

// CreateForSite attaches a customer-owned domain to a site: normalize,
// register with the provider, fetch its DNS configuration, derive the
// verification instruction, and insert the record. With redirectFromWww
// the www sibling is attached as a second, independent record redirecting
// to the apex; a www failure never rolls back the apex.
func (s *Service) CreateForSite(ctx context.Context, siteID, rawDomain string, redirectFromWww bool) (*CreateResult, error) {
	domain, err := NormalizeDomain(rawDomain)
	if err != nil {
		return nil, err
	}

	// Reject duplicates before touching the provider. The unique index
	// still guards the insert against a concurrent create.
	if _, err := s.store.GetByDomain(ctx, domain); err == nil {
		return nil, &registry.ConflictError{Field: "domain", Value: domain}
	} else if !errors.Is(err, registry.ErrNotFound) {
		return nil, err
	}

	providerID, err := s.provider.AddProjectDomain(ctx, domain, "")
	if err != nil {
		return nil, err
	}

	apex := &registry.CustomDomain{
		SiteID:           siteID,
		Domain:           domain,
		RedirectFromWww:  redirectFromWww,
		ProviderDomainID: providerID,
	}

	cfg, cfgErr := s.provider.GetDomainConfig(ctx, domain)
	if cfgErr != nil {
		apex.Status = registry.StatusError
		apex.Error = cfgErr.Error()
	} else {
		s.applyInstruction(apex, Derive(domain, *cfg))
	}

	apex, err = s.store.Insert(ctx, apex)
	if err != nil {
		return nil, err
	}
	if cfgErr != nil {
		// The record carries the failure; surface it too.
		return &CreateResult{Apex: apex}, cfgErr
	}

	result := &CreateResult{Apex: apex}
	if redirectFromWww {
		result.Www = s.attachWwwSibling(ctx, siteID, domain)
	}
	return result, nil
}

// attachWwwSibling attaches www.<apex> as a redirect to the apex. Any
// failure is recorded on the www record itself, never propagated: the
// apex is the primary deliverable.
func (s *Service) attachWwwSibling(ctx context.Context, siteID, apexDomain string) *registry.CustomDomain {
	wwwDomain := "www." + apexDomain
	record := &registry.CustomDomain{
		SiteID: siteID,
		Domain: wwwDomain,
	}

	providerID, err := s.provider.AddProjectDomain(ctx, wwwDomain, apexDomain)
	if err != nil {
		record.Status = registry.StatusError
		record.Error = fmt.Sprintf("failed to attach www redirect: %v", err)
	} else {
		record.ProviderDomainID = providerID
		cfg, err := s.provider.GetDomainConfig(ctx, wwwDomain)
		if err != nil {
			record.Status = registry.StatusError
			record.Error = fmt.Sprintf("failed to fetch DNS configuration: %v", err)
		} else {
			s.applyInstruction(record, Derive(wwwDomain, *cfg))
		}
	}

	inserted, err := s.store.Insert(ctx, record)
	if err != nil {
		log.Printf("custom domain %s: failed to record www sibling: %v", wwwDomain, err)
		return nil
	}
	return inserted
}

func (s *Service) applyInstruction(d *registry.CustomDomain, inst Instruction) {
	d.Status = inst.Status
	d.VerificationType = inst.Type
	d.VerificationName = inst.Name
	d.VerificationValue = inst.Value
	d.Error = ""
}

// RefreshStatus re-fetches a domain's provider configuration and patches
// its status and verification fields. A provider failure is persisted on
// the record AND returned: callers must not assume an error means no
// state change occurred.
func (s *Service) RefreshStatus(ctx context.Context, id string) (*registry.CustomDomain, error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, err := s.provider.GetDomainConfig(ctx, d.Domain)
	if err != nil {
		patch := registry.StatusPatch{
			Status:            registry.StatusError,
			VerificationType:  d.VerificationType,
			VerificationName:  d.VerificationName,
			VerificationValue: d.VerificationValue,
			Error:             err.Error(),
		}
		if updateErr := s.store.UpdateStatus(ctx, id, patch); updateErr != nil {
			log.Printf("custom domain %s: failed to persist error state: %v", d.Domain, updateErr)
		}
		return nil, err
	}

	inst := Derive(d.Domain, *cfg)
	patch := registry.StatusPatch{
		Status:            inst.Status,
		VerificationType:  inst.Type,
		VerificationName:  inst.Name,
		VerificationValue: inst.Value,
	}
	if err := s.store.UpdateStatus(ctx, id, patch); err != nil {
		return nil, err
	}

	d.Status = inst.Status
	d.VerificationType = inst.Type
	d.VerificationName = inst.Name
	d.VerificationValue = inst.Value
	d.Error = ""
	return d, nil
}

// DetachResult is the explicit two-outcome result of a best-effort
// provider detach. It is logged, never escalated: local consistency wins
// over provider-side tidiness.
type DetachResult struct {
	Detached bool
	Reason   string
}

func (s *Service) detach(ctx context.Context, domain string) DetachResult {
	err := s.provider.RemoveProjectDomain(ctx, domain)
	if err == nil || vercel.IsNotFound(err) {
		return DetachResult{Detached: true}
	}
	return DetachResult{Detached: false, Reason: err.Error()}
}

// RemoveFromProject detaches a domain from the provider (best effort)
// and deletes the local record unconditionally. A missing record is a
// no-op success.
func (s *Service) RemoveFromProject(ctx context.Context, id string) error {
	d, err := s.store.GetByID(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if res := s.detach(ctx, d.Domain); !res.Detached {
		log.Printf("custom domain %s: provider detach failed, continuing with local delete: %s", d.Domain, res.Reason)
	}

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return err
	}
	return nil
}

// RemoveAllForSite removes every custom domain owned by a site, detaching
// each from the provider best-effort. Used when a site is deleted so no
// orphaned domain records survive their owner.
func (s *Service) RemoveAllForSite(ctx context.Context, siteID string) error {
	list, err := s.store.ListForSite(ctx, siteID)
	if err != nil {
		return err
	}
	for _, d := range list {
		if err := s.RemoveFromProject(ctx, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListForSite returns a site's custom domains.
func (s *Service) ListForSite(ctx context.Context, siteID string) ([]registry.CustomDomain, error) {
	return s.store.ListForSite(ctx, siteID)
}

// Get returns a custom domain by id.
func (s *Service) Get(ctx context.Context, id string) (*registry.CustomDomain, error) {
	return s.store.GetByID(ctx, id)
}
