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

func customDomainRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "site_id", "domain", "redirect_from_www", "status",
		"verification_type", "verification_name", "verification_value",
		"provider_domain_id", "error", "created_at", "updated_at",
	})
}

func TestDomainStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDomainStore(db)

	t.Run("successful insert", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO custom_domains").
			WillReturnResult(sqlmock.NewResult(0, 1))

		d, err := store.Insert(context.Background(), &CustomDomain{
			SiteID:            "site-1",
			Domain:            "example.com",
			Status:            StatusActive,
			VerificationType:  "A",
			VerificationName:  "example.com",
			VerificationValue: "76.76.21.21",
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if d.ID == "" {
			t.Error("Insert() should assign an id")
		}
		if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
			t.Error("Insert() should set timestamps")
		}
	})

	t.Run("defaults to pending status", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO custom_domains").
			WillReturnResult(sqlmock.NewResult(0, 1))

		d, err := store.Insert(context.Background(), &CustomDomain{
			SiteID: "site-1",
			Domain: "pending.example.com",
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if d.Status != StatusPending {
			t.Errorf("Insert() status = %q, want pending", d.Status)
		}
	})

	t.Run("duplicate domain via unique index", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO custom_domains").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_custom_domains_domain"})

		_, err := store.Insert(context.Background(), &CustomDomain{
			SiteID: "site-2",
			Domain: "example.com",
		})
		if !IsConflict(err) {
			t.Errorf("Insert() error = %v, want ConflictError", err)
		}
	})

	t.Run("missing site id", func(t *testing.T) {
		_, err := store.Insert(context.Background(), &CustomDomain{Domain: "example.com"})
		if !IsValidation(err) {
			t.Errorf("Insert() error = %v, want ValidationError", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestDomainStore_GetByDomain(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDomainStore(db)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, site_id, domain").
			WithArgs("example.com").
			WillReturnRows(customDomainRows().AddRow(
				"dom-1", "site-1", "example.com", true, StatusActive,
				"A", "example.com", "76.76.21.21", "example.com", nil,
				time.Now(), time.Now(),
			))

		d, err := store.GetByDomain(context.Background(), "example.com")
		if err != nil {
			t.Fatalf("GetByDomain() error = %v", err)
		}
		if d.SiteID != "site-1" {
			t.Errorf("GetByDomain() siteID = %q, want site-1", d.SiteID)
		}
		if !d.RedirectFromWww {
			t.Error("GetByDomain() redirectFromWww = false, want true")
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, site_id, domain").
			WithArgs("ghost.com").
			WillReturnError(sql.ErrNoRows)

		_, err := store.GetByDomain(context.Background(), "ghost.com")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByDomain() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestDomainStore_ListForSite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDomainStore(db)

	mock.ExpectQuery("SELECT id, site_id, domain").
		WithArgs("site-1").
		WillReturnRows(customDomainRows().
			AddRow("dom-1", "site-1", "example.com", true, StatusActive,
				"A", "example.com", "76.76.21.21", nil, nil, time.Now(), time.Now()).
			AddRow("dom-2", "site-1", "www.example.com", false, StatusError,
				nil, nil, nil, nil, "failed to attach www redirect", time.Now(), time.Now()))

	domains, err := store.ListForSite(context.Background(), "site-1")
	if err != nil {
		t.Fatalf("ListForSite() error = %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("ListForSite() count = %d, want 2", len(domains))
	}
	if domains[1].Error == "" {
		t.Error("ListForSite() second record should carry the error message")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestDomainStore_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDomainStore(db)

	t.Run("successful patch", func(t *testing.T) {
		mock.ExpectExec("UPDATE custom_domains").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateStatus(context.Background(), "dom-1", StatusPatch{
			Status:            StatusActive,
			VerificationType:  "A",
			VerificationName:  "example.com",
			VerificationValue: "76.76.21.21",
		})
		if err != nil {
			t.Errorf("UpdateStatus() error = %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		mock.ExpectExec("UPDATE custom_domains").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.UpdateStatus(context.Background(), "missing", StatusPatch{Status: StatusError})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestDomainStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDomainStore(db)

	t.Run("successful deletion", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM custom_domains WHERE id").
			WithArgs("dom-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := store.Delete(context.Background(), "dom-1"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM custom_domains WHERE id").
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
