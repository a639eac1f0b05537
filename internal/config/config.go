// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/seo-gateway/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong. Secrets can be supplied
// via environment variables so the config file never has to contain them.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`

	OpenAIAPIKey       string `kong:"help='OpenAI-compatible API key (overrides config).',env='OPENAI_API_KEY'"`
	GeminiAPIKey       string `kong:"help='Gemini API key (overrides config).',env='GEMINI_API_KEY'"`
	DeepSeekAPIKey     string `kong:"help='DeepSeek API key (overrides config).',env='DEEPSEEK_API_KEY'"`
	DataForSEOLogin    string `kong:"help='DataForSEO login (overrides config).',env='DATAFORSEO_LOGIN'"`
	DataForSEOPassword string `kong:"help='DataForSEO password (overrides config).',env='DATAFORSEO_PASSWORD'"`
	IdentityServiceKey string `kong:"help='Identity provider service key (overrides config).',env='IDENTITY_SERVICE_KEY'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Auth       AuthConfig       `toml:"auth"`
	DataForSEO DataForSEOConfig `toml:"dataforseo"`
	LLM        LLMConfig        `toml:"llm"`
	Proxy      ProxyConfig      `toml:"proxy"`
	Upstream   UpstreamConfig   `toml:"upstream"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// AuthConfig points at the external identity provider used to validate
// caller bearer tokens. AnonKey is public and exposed to the frontend via
// GET /config; ServiceKey is server-held and must never be.
type AuthConfig struct {
	BaseURL    string `toml:"base_url"`
	ServiceKey string `toml:"service_key"`
	AnonKey    string `toml:"anon_key"`
}

// DataForSEOConfig holds the search-data upstream and its Basic-Auth
// credentials, injected server-side on every forwarded call.
type DataForSEOConfig struct {
	BaseURL  string `toml:"base_url"`
	Login    string `toml:"login"`
	Password string `toml:"password"`
}

// LLMConfig holds the per-provider OpenAI-compatible endpoints and keys.
type LLMConfig struct {
	OpenAI   ProviderConfig `toml:"openai"`
	Gemini   ProviderConfig `toml:"gemini"`
	DeepSeek ProviderConfig `toml:"deepseek"`
}

// ProviderConfig is one LLM provider endpoint. An empty APIKey means the
// provider is not configured; requests resolving to it fail with a
// configuration error rather than going out unauthenticated.
type ProviderConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// ProxyConfig tunes the generic allowlist proxy.
type ProxyConfig struct {
	// ExtraDomains are appended to the built-in domain allowlist.
	ExtraDomains   []string `toml:"extra_domains"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// UpstreamConfig holds shared outbound connection settings.
type UpstreamConfig struct {
	ConnectTimeoutSeconds int `toml:"connect_timeout_seconds"`
	IdleConnections       int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/seo-gateway/config.toml then configs/config.toml.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.OpenAIAPIKey != "" {
		c.LLM.OpenAI.APIKey = cli.OpenAIAPIKey
	}
	if cli.GeminiAPIKey != "" {
		c.LLM.Gemini.APIKey = cli.GeminiAPIKey
	}
	if cli.DeepSeekAPIKey != "" {
		c.LLM.DeepSeek.APIKey = cli.DeepSeekAPIKey
	}
	if cli.DataForSEOLogin != "" {
		c.DataForSEO.Login = cli.DataForSEOLogin
	}
	if cli.DataForSEOPassword != "" {
		c.DataForSEO.Password = cli.DataForSEOPassword
	}
	if cli.IdentityServiceKey != "" {
		c.Auth.ServiceKey = cli.IdentityServiceKey
	}
}

func (c *Config) validate() error {
	// Base URLs: each must parse to an absolute http(s) URL when set.
	// Missing provider secrets are deliberately NOT a load error: they
	// surface as configuration errors at first use so that a gateway
	// with only some providers configured still starts.
	urls := map[string]string{
		"auth.base_url":         c.Auth.BaseURL,
		"dataforseo.base_url":   c.DataForSEO.BaseURL,
		"llm.openai.base_url":   c.LLM.OpenAI.BaseURL,
		"llm.gemini.base_url":   c.LLM.Gemini.BaseURL,
		"llm.deepseek.base_url": c.LLM.DeepSeek.BaseURL,
	}
	for field, raw := range urls {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", field, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL; got %q", field, raw)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Proxy.TimeoutSeconds < 0 {
		return fmt.Errorf("proxy.timeout_seconds must be non-negative; got %d", c.Proxy.TimeoutSeconds)
	}
	if c.Upstream.ConnectTimeoutSeconds < 0 {
		return fmt.Errorf("upstream.connect_timeout_seconds must be non-negative; got %d", c.Upstream.ConnectTimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api", "/health", "/gateway/status", "/config"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// SetDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, TimeoutSeconds, etc.), zero means "unset"
// because TOML cannot distinguish between an explicit 0 and an omitted key.
// Exported because tests build Config values directly.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.DataForSEO.BaseURL == "" {
		c.DataForSEO.BaseURL = "https://api.dataforseo.com/v3"
	}
	if c.LLM.OpenAI.BaseURL == "" {
		c.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Gemini.BaseURL == "" {
		// Gemini's OpenAI-compatibility endpoint.
		c.LLM.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if c.LLM.DeepSeek.BaseURL == "" {
		c.LLM.DeepSeek.BaseURL = "https://api.deepseek.com"
	}
	if c.Proxy.TimeoutSeconds == 0 {
		c.Proxy.TimeoutSeconds = 60
	}
	if c.Upstream.ConnectTimeoutSeconds == 0 {
		c.Upstream.ConnectTimeoutSeconds = 10
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// MissingSecrets lists human-readable names of credentials that are not
// configured. Used for a startup warning; each missing credential also
// fails at first use with a configuration error.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Auth.BaseURL == "" || c.Auth.ServiceKey == "" {
		missing = append(missing, "identity provider (auth.base_url, auth.service_key)")
	}
	if c.DataForSEO.Login == "" || c.DataForSEO.Password == "" {
		missing = append(missing, "DataForSEO credentials (dataforseo.login, dataforseo.password)")
	}
	if c.LLM.OpenAI.APIKey == "" {
		missing = append(missing, "OpenAI API key (llm.openai.api_key)")
	}
	if c.LLM.Gemini.APIKey == "" {
		missing = append(missing, "Gemini API key (llm.gemini.api_key)")
	}
	if c.LLM.DeepSeek.APIKey == "" {
		missing = append(missing, "DeepSeek API key (llm.deepseek.api_key)")
	}
	return missing
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or
// others; it holds upstream credentials.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
