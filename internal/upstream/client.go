package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RemoteSession is the upstream provider's view of a session, as returned by
// create/get/sendMessage/approve calls. Status carries the provider's raw
// status string; the Session Manager is responsible for mapping it onto the
// gateway's own SessionStatus state machine.
type RemoteSession struct {
	RemoteID   string          `json:"id"`
	Status     string          `json:"status"`
	Plan       *types.Plan     `json:"plan,omitempty"`
	Activities []types.Activity `json:"activities,omitempty"`
	Result     *types.Result   `json:"result,omitempty"`
	PRUrl      string          `json:"prUrl,omitempty"`
}

// Client is the typed verb interface the Session Manager depends on.
// Defined at the consumer so session.Service never imports net/http.
type Client interface {
	CreateSession(ctx context.Context, cfg types.SessionConfig) (*RemoteSession, error)
	GetSession(ctx context.Context, remoteID string) (*RemoteSession, error)
	SendMessage(ctx context.Context, remoteID, message string) error
	ApprovePlan(ctx context.Context, remoteID string) error
	CancelSession(ctx context.Context, remoteID string) error
	ResolveDefaultBranch(ctx context.Context, source types.Source) (string, error)
	FetchDeployLogs(ctx context.Context, deployID string) (string, error)

	// State reports the circuit breaker's current state name ("closed",
	// "open", "half-open"), surfaced by the Gateway's /health endpoint.
	State() string
}

// httpClient implements Client over the upstream provider's HTTPS API.
type httpClient struct {
	baseURL    string
	auth       authenticator
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *lru.Cache[string, cachedResponse]
	cacheTTL   time.Duration
	retryMax   int
	defaultBranch string
}

type cachedResponse struct {
	body      []byte
	expiresAt time.Time
}

// New builds a Client from the gateway's UpstreamConfig and CircuitBreaker/
// Cache configuration.
func New(cfg types.UpstreamConfig, cbCfg types.CircuitBreakerConfig, cacheCfg types.CacheConfig) (Client, error) {
	auth, err := buildAuthenticator(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retryMax := cfg.RetryMax
	if retryMax == 0 {
		retryMax = 3
	}

	cache, err := lru.New[string, cachedResponse](max(cacheCfg.Capacity, 1))
	if err != nil {
		return nil, err
	}

	breakerSettings := gobreaker.Settings{
		Name:    "upstream",
		Timeout: cbCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			threshold := cbCfg.FailureThreshold
			if threshold == 0 {
				threshold = 5
			}
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}

	return &httpClient{
		baseURL:       cfg.BaseURL,
		auth:          auth,
		httpClient:    &http.Client{Timeout: timeout},
		breaker:       gobreaker.NewCircuitBreaker(breakerSettings),
		cache:         cache,
		cacheTTL:      cacheCfg.TTL,
		retryMax:      retryMax,
		defaultBranch: cfg.DefaultBranch,
	}, nil
}

// do executes one logical upstream call: cache lookup (GET only), circuit
// breaker, and retry-with-jitter per SPEC_FULL.md §4.4.
func (c *httpClient) do(ctx context.Context, method, path string, body any, cacheable bool) ([]byte, error) {
	if cacheable {
		if cached, ok := c.cache.Get(method + " " + path); ok && time.Now().Before(cached.expiresAt) {
			return cached.body, nil
		}
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.requestWithRetry(ctx, method, path, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperr.Wrap(apperr.CircuitOpen, err, "upstream circuit open")
		}
		return nil, err
	}

	respBody := result.([]byte)
	if cacheable && c.cacheTTL > 0 {
		c.cache.Add(method+" "+path, cachedResponse{body: respBody, expiresAt: time.Now().Add(c.cacheTTL)})
	}
	return respBody, nil
}

// requestWithRetry retries network errors, 5xx, and 429 with exponential
// backoff (base=1s, interval capped at 10s, randomized jitter), up to
// retryMax retries after the first attempt. Other 4xx responses are never
// retried.
func (c *httpClient) requestWithRetry(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 1 // each wait is drawn from [0, 2*interval]; the jitter scales with the interval rather than being a fixed [0,1)s addend
	boWithLimit := backoff.WithMaxRetries(bo, uint64(c.retryMax))
	boWithCtx := backoff.WithContext(boWithLimit, ctx)

	var respBody []byte
	operation := func() error {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		headerName, headerValue, err := c.auth.Header(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set(headerName, headerValue)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err // transient, retry
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			respBody = data
			return nil
		}

		apiErr := fmt.Errorf("upstream %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return apiErr // retryable
		}
		return backoff.Permanent(apiErr)
	}

	if err := backoff.Retry(operation, boWithCtx); err != nil {
		return nil, classifyError(err)
	}
	return respBody, nil
}

func classifyError(err error) error {
	if permErr, ok := err.(*backoff.PermanentError); ok {
		return apperr.Wrap(apperr.UpstreamPermanent, permErr.Err, "upstream request failed")
	}
	return apperr.Wrap(apperr.UpstreamTransient, err, "upstream request failed after retries")
}

func (c *httpClient) CreateSession(ctx context.Context, cfg types.SessionConfig) (*RemoteSession, error) {
	data, err := c.do(ctx, http.MethodPost, "/v1/sessions", cfg, false)
	if err != nil {
		return nil, err
	}
	var rs RemoteSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode create session response: %w", err)
	}
	return &rs, nil
}

func (c *httpClient) GetSession(ctx context.Context, remoteID string) (*RemoteSession, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/sessions/"+remoteID, nil, true)
	if err != nil {
		return nil, err
	}
	var rs RemoteSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode get session response: %w", err)
	}
	return &rs, nil
}

func (c *httpClient) SendMessage(ctx context.Context, remoteID, message string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/sessions/"+remoteID+"/message", map[string]string{"message": message}, false)
	return err
}

func (c *httpClient) ApprovePlan(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/sessions/"+remoteID+"/approve", nil, false)
	return err
}

func (c *httpClient) CancelSession(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/sessions/"+remoteID+"/cancel", nil, false)
	return err
}

// FetchDeployLogs retrieves the raw build log text for a failed deploy, used
// by the webhook auto-remediation flow to extract an error summary.
func (c *httpClient) FetchDeployLogs(ctx context.Context, deployID string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/deploys/"+deployID+"/logs", nil, true)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *httpClient) ResolveDefaultBranch(ctx context.Context, source types.Source) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/sources/"+source.Raw+"/default-branch", nil, true)
	if err != nil {
		if c.defaultBranch != "" {
			return c.defaultBranch, nil
		}
		return "", err
	}
	var resp struct {
		Branch string `json:"branch"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Branch == "" {
		return c.defaultBranch, nil
	}
	return resp.Branch, nil
}

// State reports the circuit breaker's current state name.
func (c *httpClient) State() string {
	return c.breaker.State().String()
}
