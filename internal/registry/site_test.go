package registry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestValidateSubdomain(t *testing.T) {
	tests := []struct {
		name      string
		subdomain string
		wantErr   bool
	}{
		{"valid with hyphen", "my-site", false},
		{"valid alphanumeric", "a1b2", false},
		{"valid multiple hyphens", "a-b-c", false},
		{"minimum length", "abc", false},
		{"leading hyphen", "-bad", true},
		{"trailing hyphen", "bad-", true},
		{"underscore", "Has_Underscore", true},
		{"uppercase", "ACME", true},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijkl", true},
		{"double hyphen interior", "a--b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubdomain(tt.subdomain)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubdomain(%q) error = %v, wantErr %v", tt.subdomain, err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("ValidateSubdomain(%q) error = %v, want ValidationError", tt.subdomain, err)
			}
		})
	}
}

func siteRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "subdomain", "title", "description",
		"primary_color", "secondary_color", "favicon_asset_id",
		"created_at", "updated_at",
	})
}

func TestSiteStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewSiteStore(db)

	t.Run("successful creation", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain").
			WithArgs("acme").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO sites").
			WillReturnResult(sqlmock.NewResult(0, 1))

		site, err := store.Create(context.Background(), SiteInput{
			Name:         "Acme Inc",
			Subdomain:    "acme",
			Title:        "Welcome to Acme",
			PrimaryColor: "#ff0000",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if site.ID == "" {
			t.Error("Create() site.ID should be assigned")
		}
		if site.Subdomain != "acme" {
			t.Errorf("Create() subdomain = %q, want acme", site.Subdomain)
		}
	})

	t.Run("duplicate subdomain via pre-check", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain").
			WithArgs("taken").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

		_, err := store.Create(context.Background(), SiteInput{Name: "Other", Subdomain: "taken"})
		if !IsConflict(err) {
			t.Errorf("Create() error = %v, want ConflictError", err)
		}
	})

	t.Run("duplicate subdomain via unique index", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain").
			WithArgs("racing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO sites").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_sites_subdomain"})

		_, err := store.Create(context.Background(), SiteInput{Name: "Racer", Subdomain: "racing"})
		if !IsConflict(err) {
			t.Errorf("Create() error = %v, want ConflictError from unique index", err)
		}
	})

	t.Run("invalid subdomain", func(t *testing.T) {
		_, err := store.Create(context.Background(), SiteInput{Name: "Bad", Subdomain: "-bad"})
		if !IsValidation(err) {
			t.Errorf("Create() error = %v, want ValidationError", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := store.Create(context.Background(), SiteInput{Subdomain: "acme"})
		if !IsValidation(err) {
			t.Errorf("Create() error = %v, want ValidationError", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestSiteStore_GetBySubdomain(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewSiteStore(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, subdomain").
			WithArgs("acme").
			WillReturnRows(siteRows().AddRow(
				"site-1", "Acme Inc", "acme", "Welcome", "A demo site",
				"#ff0000", "#00ff00", "asset-1", time.Now(), time.Now(),
			))

		site, err := store.GetBySubdomain(context.Background(), "acme")
		if err != nil {
			t.Fatalf("GetBySubdomain() error = %v", err)
		}
		if site.Name != "Acme Inc" {
			t.Errorf("GetBySubdomain() name = %q, want Acme Inc", site.Name)
		}
		if site.FaviconAssetID != "asset-1" {
			t.Errorf("GetBySubdomain() favicon = %q, want asset-1", site.FaviconAssetID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, subdomain").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetBySubdomain(context.Background(), "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetBySubdomain() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestSiteStore_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewSiteStore(db)

	t.Run("subdomain conflict excluding self", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain = (.+) AND id !=").
			WithArgs("other", "site-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("site-2"))

		_, err := store.Update(context.Background(), "site-1", SiteInput{Name: "Acme", Subdomain: "other"})
		if !IsConflict(err) {
			t.Errorf("Update() error = %v, want ConflictError", err)
		}
	})

	t.Run("keeping own subdomain is not a conflict", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain = (.+) AND id !=").
			WithArgs("acme", "site-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("UPDATE sites").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT id, name, subdomain").
			WithArgs("site-1").
			WillReturnRows(siteRows().AddRow(
				"site-1", "Acme Inc", "acme", "New title", "",
				"", "", nil, time.Now(), time.Now(),
			))

		site, err := store.Update(context.Background(), "site-1", SiteInput{Name: "Acme Inc", Subdomain: "acme", Title: "New title"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if site.Title != "New title" {
			t.Errorf("Update() title = %q, want New title", site.Title)
		}
	})

	t.Run("missing site", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM sites WHERE subdomain = (.+) AND id !=").
			WithArgs("ghost-site", "missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("UPDATE sites").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := store.Update(context.Background(), "missing", SiteInput{Name: "Ghost", Subdomain: "ghost-site"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestSiteStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewSiteStore(db)

	t.Run("successful deletion", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM sites WHERE id").
			WithArgs("site-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := store.Delete(context.Background(), "site-1"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("missing site", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM sites WHERE id").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := store.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}
