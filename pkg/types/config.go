package types

import "time"

// Config is the gateway's runtime configuration (§6 Configuration).
type Config struct {
	Schema string `json:"$schema,omitempty"`

	Port int `json:"port,omitempty"`

	Upstream UpstreamConfig `json:"upstream"`

	PersistenceURL string `json:"persistenceURL,omitempty"`

	Webhook WebhookConfig `json:"webhook"`

	CORSAllowOrigins []string `json:"corsAllowOrigins,omitempty"`

	LogLevel  string `json:"logLevel,omitempty"`  // "debug"|"info"|"warn"|"error"
	LogFormat string `json:"logFormat,omitempty"` // "json"|"pretty"

	RateLimit RateLimitConfig `json:"rateLimit"`

	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`

	Cache CacheConfig `json:"cache"`

	QueueMaxRetained int `json:"queueMaxRetained,omitempty"`
	TemplateCap      int `json:"templateCap,omitempty"`

	BatchHardCap int `json:"batchHardCap,omitempty"`

	ShutdownTimeout time.Duration `json:"-"`
}

// UpstreamConfig holds upstream provider credentials and endpoint.
type UpstreamConfig struct {
	BaseURL          string        `json:"baseURL"`
	APIKey           string        `json:"apiKey,omitempty"`
	ServiceAccountJSON string      `json:"serviceAccountJSON,omitempty"`
	Timeout          time.Duration `json:"timeout,omitempty"`
	RetryMax         int           `json:"retryMax,omitempty"`
	DefaultBranch    string        `json:"defaultBranch,omitempty"`
}

// WebhookConfig holds webhook intake settings.
type WebhookConfig struct {
	Secret            string        `json:"secret,omitempty"`
	MonitoredServices []string      `json:"monitoredServices,omitempty"`
	AutoFixEnabled    bool          `json:"autoFixEnabled,omitempty"`
	DedupRetention    time.Duration `json:"dedupRetention,omitempty"`
}

// RateLimitConfig configures the Gateway's sliding-window limiter.
type RateLimitConfig struct {
	Window time.Duration `json:"window,omitempty"`
	Cap    int           `json:"cap,omitempty"`
}

// CircuitBreakerConfig configures the Upstream Client's breaker.
type CircuitBreakerConfig struct {
	FailureThreshold uint32        `json:"failureThreshold,omitempty"`
	OpenTimeout      time.Duration `json:"openTimeout,omitempty"`
}

// CacheConfig configures the Upstream Client's response cache.
type CacheConfig struct {
	Capacity int           `json:"capacity,omitempty"`
	TTL      time.Duration `json:"ttl,omitempty"`
}
