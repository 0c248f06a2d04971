package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Site represents one tenant site served by the platform.
type Site struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Subdomain      string    `json:"subdomain"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	FaviconAssetID string    `json:"favicon_asset_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SiteInput carries the mutable fields for create/update operations.
type SiteInput struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FaviconAssetID string `json:"favicon_asset_id"`
}

// subdomainPattern matches lowercase alphanumeric labels with interior
// hyphen groups, no leading or trailing hyphen.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateSubdomain checks the platform subdomain rules: lowercase,
// 3-63 characters, alphanumeric with interior hyphens only.
func ValidateSubdomain(subdomain string) error {
	if len(subdomain) < 3 || len(subdomain) > 63 {
		return NewValidationError("subdomain", "must be between 3 and 63 characters")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return NewValidationError("subdomain", "must be lowercase alphanumeric, hyphens allowed between characters")
	}
	return nil
}

// SiteStore persists Site records in PostgreSQL.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

const siteColumns = `id, name, subdomain, title, description, primary_color, secondary_color, favicon_asset_id, created_at, updated_at`

func scanSite(row interface{ Scan(...interface{}) error }) (*Site, error) {
	var s Site
	var favicon sql.NullString
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Subdomain,
		&s.Title,
		&s.Description,
		&s.PrimaryColor,
		&s.SecondaryColor,
		&favicon,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.FaviconAssetID = favicon.String
	return &s, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The unique indexes on subdomain/domain are the real guard
// against concurrent duplicate creates; the pre-checks only give callers
// a friendlier early answer.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts a new Site after validating its subdomain. Duplicate
// subdomains are rejected with a ConflictError, both by the existence
// pre-check and by the unique index at insert time.
func (s *SiteStore) Create(ctx context.Context, in SiteInput) (*Site, error) {
	if in.Name == "" {
		return nil, NewValidationError("name", "cannot be empty")
	}
	if err := ValidateSubdomain(in.Subdomain); err != nil {
		return nil, err
	}

	var existingID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sites WHERE subdomain = $1
	`, in.Subdomain).Scan(&existingID)
	if err == nil {
		return nil, &ConflictError{Field: "subdomain", Value: in.Subdomain}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing subdomain: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sites (id, name, subdomain, title, description, primary_color, secondary_color, favicon_asset_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
	`, id, in.Name, in.Subdomain, in.Title, in.Description, in.PrimaryColor, in.SecondaryColor, in.FaviconAssetID, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "subdomain", Value: in.Subdomain}
		}
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	return &Site{
		ID:             id,
		Name:           in.Name,
		Subdomain:      in.Subdomain,
		Title:          in.Title,
		Description:    in.Description,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
		FaviconAssetID: in.FaviconAssetID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// GetByID returns a site by its registry-assigned id.
func (s *SiteStore) GetByID(ctx context.Context, id string) (*Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}
	return site, nil
}

// GetBySubdomain returns the site owning the given subdomain.
func (s *SiteStore) GetBySubdomain(ctx context.Context, subdomain string) (*Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE subdomain = $1
	`, subdomain))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}
	return site, nil
}

// List returns all sites, newest first.
func (s *SiteStore) List(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+siteColumns+` FROM sites ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}
	return sites, nil
}

// Update replaces the mutable fields of a site. A changed subdomain is
// re-validated and re-checked for uniqueness excluding the site itself.
func (s *SiteStore) Update(ctx context.Context, id string, in SiteInput) (*Site, error) {
	if in.Name == "" {
		return nil, NewValidationError("name", "cannot be empty")
	}
	if err := ValidateSubdomain(in.Subdomain); err != nil {
		return nil, err
	}

	var existingID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sites WHERE subdomain = $1 AND id != $2
	`, in.Subdomain, id).Scan(&existingID)
	if err == nil {
		return nil, &ConflictError{Field: "subdomain", Value: in.Subdomain}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing subdomain: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE sites
		SET name = $1, subdomain = $2, title = $3, description = $4,
		    primary_color = $5, secondary_color = $6, favicon_asset_id = NULLIF($7, ''), updated_at = $8
		WHERE id = $9
	`, in.Name, in.Subdomain, in.Title, in.Description, in.PrimaryColor, in.SecondaryColor, in.FaviconAssetID, now, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Field: "subdomain", Value: in.Subdomain}
		}
		return nil, fmt.Errorf("failed to update site: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// Delete removes a site. Custom domains and the favicon asset are the
// caller's responsibility to release first.
func (s *SiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sites WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
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
