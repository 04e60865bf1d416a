package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// Defaults mirror SPEC_FULL.md §6's configuration defaults.
func Defaults() types.Config {
	return types.Config{
		Port: 8080,
		Upstream: types.UpstreamConfig{
			Timeout:       30 * time.Second,
			RetryMax:      3,
			DefaultBranch: "main",
		},
		Webhook: types.WebhookConfig{
			DedupRetention: 24 * time.Hour,
		},
		LogLevel:  "info",
		LogFormat: "json",
		RateLimit: types.RateLimitConfig{
			Window: 60 * time.Second,
			Cap:    100,
		},
		CircuitBreaker: types.CircuitBreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      60 * time.Second,
		},
		Cache: types.CacheConfig{
			Capacity: 100,
			TTL:      10 * time.Second,
		},
		QueueMaxRetained: 100,
		TemplateCap:      100,
		BatchHardCap:     8,
		ShutdownTimeout:  30 * time.Second,
	}
}

// Load loads configuration from multiple sources (priority order):
//  1. Global config (~/.config/mcp-gateway/)
//  2. Project config (.mcp-gateway/ under directory)
//  3. .env file in directory, then process environment
func Load(directory string) (*types.Config, error) {
	cfg := Defaults()

	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	globalPath := GetPaths().Config
	loadConfigFile(filepath.Join(globalPath, "gateway.json"), &cfg)
	loadConfigFile(filepath.Join(globalPath, "gateway.jsonc"), &cfg)
	loadConfigFile(filepath.Join(globalPath, "gateway.yaml"), &cfg)

	if directory != "" {
		loadConfigFile(filepath.Join(directory, ".mcp-gateway", "gateway.json"), &cfg)
		loadConfigFile(filepath.Join(directory, ".mcp-gateway", "gateway.jsonc"), &cfg)
		loadConfigFile(filepath.Join(directory, ".mcp-gateway", "gateway.yaml"), &cfg)
	}

	applyEnvOverrides(&cfg)

	if cfg.Upstream.ServiceAccountJSON != "" {
		if err := upstream.ValidateServiceAccountJSON(cfg.Upstream.ServiceAccountJSON); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	return &cfg, nil
}

// loadConfigFile loads a single config file, merging onto cfg. Missing
// files are silently skipped; .yaml files are parsed as YAML, everything
// else as JSONC (comments permitted, stripped before decoding).
func loadConfigFile(path string, cfg *types.Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileConfig types.Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return
		}
	} else {
		data = stripJSONComments(data)
		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return
		}
	}

	mergeConfig(cfg, &fileConfig)
}

// stripJSONComments removes // and /* */ comments from JSONC via
// tidwall/jsonc, which leaves "//" inside string values (such as URLs) intact.
func stripJSONComments(data []byte) []byte {
	return jsonc.ToJSON(data)
}

// mergeConfig merges non-zero fields of source onto target.
func mergeConfig(target, source *types.Config) {
	if source.Port != 0 {
		target.Port = source.Port
	}
	if source.Upstream.BaseURL != "" {
		target.Upstream.BaseURL = source.Upstream.BaseURL
	}
	if source.Upstream.APIKey != "" {
		target.Upstream.APIKey = source.Upstream.APIKey
	}
	if source.Upstream.ServiceAccountJSON != "" {
		target.Upstream.ServiceAccountJSON = source.Upstream.ServiceAccountJSON
	}
	if source.Upstream.Timeout != 0 {
		target.Upstream.Timeout = source.Upstream.Timeout
	}
	if source.Upstream.RetryMax != 0 {
		target.Upstream.RetryMax = source.Upstream.RetryMax
	}
	if source.Upstream.DefaultBranch != "" {
		target.Upstream.DefaultBranch = source.Upstream.DefaultBranch
	}
	if source.PersistenceURL != "" {
		target.PersistenceURL = source.PersistenceURL
	}
	if source.Webhook.Secret != "" {
		target.Webhook.Secret = source.Webhook.Secret
	}
	if len(source.Webhook.MonitoredServices) > 0 {
		target.Webhook.MonitoredServices = source.Webhook.MonitoredServices
	}
	if source.Webhook.AutoFixEnabled {
		target.Webhook.AutoFixEnabled = true
	}
	if source.Webhook.DedupRetention != 0 {
		target.Webhook.DedupRetention = source.Webhook.DedupRetention
	}
	if len(source.CORSAllowOrigins) > 0 {
		target.CORSAllowOrigins = source.CORSAllowOrigins
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
	}
	if source.RateLimit.Window != 0 {
		target.RateLimit.Window = source.RateLimit.Window
	}
	if source.RateLimit.Cap != 0 {
		target.RateLimit.Cap = source.RateLimit.Cap
	}
	if source.CircuitBreaker.FailureThreshold != 0 {
		target.CircuitBreaker.FailureThreshold = source.CircuitBreaker.FailureThreshold
	}
	if source.CircuitBreaker.OpenTimeout != 0 {
		target.CircuitBreaker.OpenTimeout = source.CircuitBreaker.OpenTimeout
	}
	if source.Cache.Capacity != 0 {
		target.Cache.Capacity = source.Cache.Capacity
	}
	if source.Cache.TTL != 0 {
		target.Cache.TTL = source.Cache.TTL
	}
	if source.QueueMaxRetained != 0 {
		target.QueueMaxRetained = source.QueueMaxRetained
	}
	if source.TemplateCap != 0 {
		target.TemplateCap = source.TemplateCap
	}
	if source.BatchHardCap != 0 {
		target.BatchHardCap = source.BatchHardCap
	}
}

// applyEnvOverrides applies the environment variables named in SPEC_FULL.md §6.
func applyEnvOverrides(cfg *types.Config) {
	if v := os.Getenv("MCP_GATEWAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("MCP_GATEWAY_UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("MCP_GATEWAY_UPSTREAM_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := os.Getenv("MCP_GATEWAY_UPSTREAM_SERVICE_ACCOUNT_JSON"); v != "" {
		cfg.Upstream.ServiceAccountJSON = v
	}
	if v := os.Getenv("MCP_GATEWAY_PERSISTENCE_URL"); v != "" {
		cfg.PersistenceURL = v
	}
	if v := os.Getenv("MCP_GATEWAY_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("MCP_GATEWAY_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORSAllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("MCP_GATEWAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCP_GATEWAY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MCP_GATEWAY_RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Window = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("MCP_GATEWAY_RATE_LIMIT_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Cap = n
		}
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Save writes the configuration as indented JSON.
func Save(cfg *types.Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
