package domains

import (
	"testing"

	"github.com/ignite/sitehub/internal/registry"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain apex", "example.com", "example.com", false},
		{"uppercase with scheme and path", "HTTPS://Example.com/path", "example.com", false},
		{"http scheme", "http://app.example.com", "app.example.com", false},
		{"trailing dot", "example.com.", "example.com", false},
		{"port stripped", "example.com:8080", "example.com", false},
		{"query stripped", "example.com?utm=1", "example.com", false},
		{"surrounding whitespace", "  example.com  ", "example.com", false},
		{"no dot", "nodothost", "", true},
		{"scheme only no dot", "https://localhost", "", true},
		{"empty", "", "", true},
		{"empty label", "foo..com", "", true},
		{"leading hyphen label", "-foo.example.com", "", true},
		{"trailing hyphen label", "foo-.example.com", "", true},
		{"underscore", "foo_bar.example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDomain(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDomain(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				if !registry.IsValidation(err) {
					t.Errorf("NormalizeDomain(%q) error = %v, want ValidationError", tt.raw, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsApex(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"example.com", true},
		{"app.example.com", false},
		{"www.example.com", false},
		{"deep.app.example.com", false},
	}

	for _, tt := range tests {
		if got := IsApex(tt.domain); got != tt.want {
			t.Errorf("IsApex(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}
