package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Platform PlatformConfig `yaml:"platform"`
	Vercel   VercelConfig   `yaml:"vercel"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	URL string `yaml:"url"`
}

// PlatformConfig holds multi-tenant platform settings: the wildcard root
// domains every tenant subdomain hangs off, the reserved subdomains that
// never resolve to a tenant, and the site-config cache window.
type PlatformConfig struct {
	RootDomains        []string `yaml:"root_domains"`
	ReservedSubdomains []string `yaml:"reserved_subdomains"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CacheStaleSeconds  int      `yaml:"cache_stale_seconds"`
}

// CacheTTL returns the hard cache expiry as a duration
func (c PlatformConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CacheStale returns the freshness window as a duration. Entries older
// than this but younger than CacheTTL are served stale while revalidated.
func (c PlatformConfig) CacheStale() time.Duration {
	return time.Duration(c.CacheStaleSeconds) * time.Second
}

// VercelConfig holds credentials for the external domain provider
type VercelConfig struct {
	Token          string `yaml:"token"`
	ProjectID      string `yaml:"project_id"`
	TeamID         string `yaml:"team_id"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c VercelConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AssetsConfig holds favicon blob storage configuration
type AssetsConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	CDNDomain  string `yaml:"cdn_domain"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c AssetsConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Platform.CacheTTLSeconds == 0 {
		cfg.Platform.CacheTTLSeconds = 120
	}
	if cfg.Platform.CacheStaleSeconds == 0 {
		cfg.Platform.CacheStaleSeconds = 60
	}
	if len(cfg.Platform.ReservedSubdomains) == 0 {
		cfg.Platform.ReservedSubdomains = []string{"admin", "www"}
	}
	if cfg.Vercel.BaseURL == "" {
		cfg.Vercel.BaseURL = "https://api.vercel.com"
	}
	if cfg.Vercel.TimeoutSeconds == 0 {
		cfg.Vercel.TimeoutSeconds = 30
	}
	if cfg.Assets.AWSRegion == "" {
		cfg.Assets.AWSRegion = "us-east-1"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file: env-only deployment
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if roots := os.Getenv("ROOT_DOMAINS"); roots != "" {
		cfg.Platform.RootDomains = splitRootDomains(roots)
	}
	if token := os.Getenv("VERCEL_TOKEN"); token != "" {
		cfg.Vercel.Token = token
	}
	if projectID := os.Getenv("VERCEL_PROJECT_ID"); projectID != "" {
		cfg.Vercel.ProjectID = projectID
	}
	if teamID := os.Getenv("VERCEL_TEAM_ID"); teamID != "" {
		cfg.Vercel.TeamID = teamID
	}
	if baseURL := os.Getenv("VERCEL_BASE_URL"); baseURL != "" {
		cfg.Vercel.BaseURL = baseURL
	}
	if bucket := os.Getenv("ASSETS_S3_BUCKET"); bucket != "" {
		cfg.Assets.S3Bucket = bucket
	}
	if region := os.Getenv("ASSETS_S3_REGION"); region != "" {
		cfg.Assets.AWSRegion = region
	}
	if cdn := os.Getenv("ASSETS_CDN_DOMAIN"); cdn != "" {
		cfg.Assets.CDNDomain = cdn
	}

	return cfg, nil
}

// splitRootDomains parses the comma-separated ROOT_DOMAINS value,
// trimming whitespace and dropping empty entries.
func splitRootDomains(raw string) []string {
	var roots []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			roots = append(roots, part)
		}
	}
	return roots
}
