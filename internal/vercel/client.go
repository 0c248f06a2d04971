package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/sitehub/internal/config"
)

// ConfigError reports missing provider credentials or project id. It is
// startup-class: surfaced immediately, never retried.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vercel client not configured: %s is unset", e.Missing)
}

// APIError is a non-2xx response from the provider. The message is the
// provider's own; credentials never appear in it.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vercel API %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("vercel API %d", e.Status)
}

// IsNotFound reports whether err is the provider's 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is a thin client for the Vercel domains API. It carries no retry
// policy: retries belong to the calling workflow.
type Client struct {
	token      string
	projectID  string
	teamID     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Vercel API client.
func NewClient(cfg config.VercelConfig) *Client {
	return &Client{
		token:      cfg.Token,
		projectID:  cfg.ProjectID,
		teamID:     cfg.TeamID,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// IsConfigured returns true if the token and project id are set.
func (c *Client) IsConfigured() bool {
	return c.token != "" && c.projectID != ""
}

func (c *Client) checkConfigured() error {
	if c.token == "" {
		return &ConfigError{Missing: "token"}
	}
	if c.projectID == "" {
		return &ConfigError{Missing: "project_id"}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, int, error) {
	u := c.baseURL + path
	if c.teamID != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "teamId=" + url.QueryEscape(c.teamID)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("vercel API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return respBody, resp.StatusCode, nil
}

// statusError parses the provider error envelope into an APIError.
func statusError(status int, body []byte) error {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &APIError{Status: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &APIError{Status: status}
}

// AddProjectDomain registers a domain under the platform project. A
// non-empty redirectTo attaches it as a redirect to another domain.
// Returns the provider-side domain id (the domain name, per the API).
func (c *Client) AddProjectDomain(ctx context.Context, domain, redirectTo string) (string, error) {
	if err := c.checkConfigured(); err != nil {
		return "", err
	}

	payload := map[string]interface{}{"name": domain}
	if redirectTo != "" {
		payload["redirect"] = redirectTo
	}

	body, status, err := c.doRequest(ctx, http.MethodPost, "/v10/projects/"+url.PathEscape(c.projectID)+"/domains", payload)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", statusError(status, body)
	}

	var pd ProjectDomain
	if err := json.Unmarshal(body, &pd); err != nil {
		return "", fmt.Errorf("failed to parse project domain: %w", err)
	}
	if pd.Name == "" {
		pd.Name = domain
	}
	return pd.Name, nil
}

// GetDomainConfig returns the provider's recommended DNS records and
// misconfiguration flag for a domain. Unexpected response shapes are
// rejected here rather than propagated inward.
func (c *Client) GetDomainConfig(ctx context.Context, domain string) (*DomainConfig, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	body, status, err := c.doRequest(ctx, http.MethodGet, "/v6/domains/"+url.PathEscape(domain)+"/config", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, statusError(status, body)
	}

	var cfg DomainConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse domain config: %w", err)
	}
	return &cfg, nil
}

// RemoveProjectDomain detaches a domain from the platform project.
// Callers treat failure as non-fatal; a provider-side 404 means the
// domain is already gone and is reported as an APIError for the caller
// to classify.
func (c *Client) RemoveProjectDomain(ctx context.Context, domain string) error {
	if err := c.checkConfigured(); err != nil {
		return err
	}

	body, status, err := c.doRequest(ctx, http.MethodDelete, "/v9/projects/"+url.PathEscape(c.projectID)+"/domains/"+url.PathEscape(domain), nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return statusError(status, body)
	}
	return nil
}
