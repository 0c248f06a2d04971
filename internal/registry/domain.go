package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Domain status values. There is no terminal "deleted" state: removal
// deletes the record entirely.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusError   = "error"
)

// CustomDomain represents a customer-owned domain attached to a site.
// Apex and www variants are distinct records.
type CustomDomain struct {
	ID                string    `json:"id"`
	SiteID            string    `json:"site_id"`
	Domain            string    `json:"domain"`
	RedirectFromWww   bool      `json:"redirect_from_www"`
	Status            string    `json:"status"`
	VerificationType  string    `json:"verification_type,omitempty"`
	VerificationName  string    `json:"verification_name,omitempty"`
	VerificationValue string    `json:"verification_value,omitempty"`
	ProviderDomainID  string    `json:"provider_domain_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DomainStore persists CustomDomain records in PostgreSQL.
type DomainStore struct {
	db *sql.DB
}

// NewDomainStore creates a new DomainStore.
func NewDomainStore(db *sql.DB) *DomainStore {
	return &DomainStore{db: db}
}

const domainColumns = `id, site_id, domain, redirect_from_www, status, verification_type, verification_name, verification_value, provider_domain_id, error, created_at, updated_at`

func scanDomain(row interface{ Scan(...interface{}) error }) (*CustomDomain, error) {
	var d CustomDomain
	var vType, vName, vValue, providerID, errMsg sql.NullString
	err := row.Scan(
		&d.ID,
		&d.SiteID,
		&d.Domain,
		&d.RedirectFromWww,
		&d.Status,
		&vType,
		&vName,
		&vValue,
		&providerID,
		&errMsg,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.VerificationType = vType.String
	d.VerificationName = vName.String
	d.VerificationValue = vValue.String
	d.ProviderDomainID = providerID.String
	d.Error = errMsg.String
	return &d, nil
}

// Insert stores a new custom domain record. The domain string must be
// normalized by the caller; duplicates are rejected with a ConflictError
// backed by the unique index on domain.
func (s *DomainStore) Insert(ctx context.Context, d *CustomDomain) (*CustomDomain, error) {
	if d.SiteID == "" {
		return nil, NewValidationError("site_id", "cannot be empty")
	}
	if d.Domain == "" {
		return nil, NewValidationError("domain", "cannot be empty")
	}

	out := *d
	out.ID = uuid.New().String()
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now
	if out.Status == "" {
		out.Status = StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_domains (id, site_id, domain, redirect_from_www, status, verification_type, verification_name, verification_value, provider_domain_id, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12)
	`, out.ID, out.SiteID, out.Domain, out.RedirectFromWww, out.Status,
		out.VerificationType, out.VerificationName, out.VerificationValue,
		out.ProviderDomainID, out.Error, out.CreatedAt, out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "domain", Value: out.Domain}
		}
		return nil, fmt.Errorf("failed to create custom domain: %w", err)
	}

	return &out, nil
}

// GetByID returns a custom domain by id.
func (s *DomainStore) GetByID(ctx context.Context, id string) (*CustomDomain, error) {
	d, err := scanDomain(s.db.QueryRowContext(ctx, `
		SELECT `+domainColumns+` FROM custom_domains WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query custom domain: %w", err)
	}
	return d, nil
}

// GetByDomain returns a custom domain by its exact domain string.
func (s *DomainStore) GetByDomain(ctx context.Context, domain string) (*CustomDomain, error) {
	d, err := scanDomain(s.db.QueryRowContext(ctx, `
		SELECT `+domainColumns+` FROM custom_domains WHERE domain = $1
	`, domain))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query custom domain: %w", err)
	}
	return d, nil
}

// ListForSite returns all custom domains owned by a site, oldest first so
// the apex created before its www sibling lists first.
func (s *DomainStore) ListForSite(ctx context.Context, siteID string) ([]CustomDomain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+domainColumns+` FROM custom_domains WHERE site_id = $1 ORDER BY created_at ASC
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom domains: %w", err)
	}
	defer rows.Close()

	var domains []CustomDomain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan custom domain: %w", err)
		}
		domains = append(domains, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating custom domains: %w", err)
	}
	return domains, nil
}

// StatusPatch carries the verification fields updated by a refresh.
type StatusPatch struct {
	Status            string
	VerificationType  string
	VerificationName  string
	VerificationValue string
	ProviderDomainID  string
	Error             string
}

// UpdateStatus patches a domain's status and verification fields.
func (s *DomainStore) UpdateStatus(ctx context.Context, id string, patch StatusPatch) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE custom_domains
		SET status = $1, verification_type = NULLIF($2, ''), verification_name = NULLIF($3, ''),
		    verification_value = NULLIF($4, ''), provider_domain_id = COALESCE(NULLIF($5, ''), provider_domain_id),
		    error = NULLIF($6, ''), updated_at = $7
		WHERE id = $8
	`, patch.Status, patch.VerificationType, patch.VerificationName,
		patch.VerificationValue, patch.ProviderDomainID, patch.Error, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update custom domain: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a custom domain record.
func (s *DomainStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM custom_domains WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom domain: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
