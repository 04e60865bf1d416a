package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// authenticator injects a credential header onto outgoing requests.
type authenticator interface {
	// Header returns the header name and value to set on the request.
	Header(ctx context.Context) (name, value string, err error)
}

// apiKeyAuth injects a static shared-secret header.
type apiKeyAuth struct {
	key string
}

func (a *apiKeyAuth) Header(ctx context.Context) (string, string, error) {
	return "Authorization", "Bearer " + a.key, nil
}

// oauthAuth injects a bearer token obtained from a service-account
// credential, refreshing it on expiry via golang.org/x/oauth2's
// TokenSource caching. Per SPEC_FULL.md §4.4, OAuth wins when both
// an API key and a service account are configured.
type oauthAuth struct {
	source oauth2.TokenSource
}

func newOAuthAuth(serviceAccountJSON, scope string) (*oauthAuth, error) {
	cfg, err := google.JWTConfigFromJSON([]byte(serviceAccountJSON), scope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credential: %w", err)
	}
	return &oauthAuth{source: cfg.TokenSource(context.Background())}, nil
}

func (a *oauthAuth) Header(ctx context.Context) (string, string, error) {
	token, err := a.source.Token()
	if err != nil {
		return "", "", fmt.Errorf("refresh oauth token: %w", err)
	}
	return "Authorization", token.Type() + " " + token.AccessToken, nil
}

// buildAuthenticator picks OAuth over an API key when both are configured.
func buildAuthenticator(cfg types.UpstreamConfig) (authenticator, error) {
	if cfg.ServiceAccountJSON != "" {
		auth, err := newOAuthAuth(cfg.ServiceAccountJSON, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, err
		}
		return auth, nil
	}
	if cfg.APIKey != "" {
		return &apiKeyAuth{key: cfg.APIKey}, nil
	}
	return nil, fmt.Errorf("upstream: no credential configured (apiKey or serviceAccountJSON required)")
}

// ValidateServiceAccountJSON is called from internal/config's Load to fail
// fast on a malformed credential at startup rather than at the first
// upstream request.
func ValidateServiceAccountJSON(raw string) error {
	var v map[string]any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("invalid service account JSON: %w", err)
	}
	return nil
}
