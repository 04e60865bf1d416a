package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

const deployFailedEvent = "deploy_failed"

// maxErrorLines bounds how many build-log lines are embedded in the
// remediation session's prompt.
const maxErrorLines = 20

// errorLinePattern extracts build-log lines that look like failures,
// grounded on the fixed pattern rules named in SPEC_FULL.md §4.8.
var errorLinePattern = regexp.MustCompile(`(?i)(error|fail(ed|ure)?|exception|fatal)`)

// DeployEvent is the inbound payload for a deploy_failed webhook.
type DeployEvent struct {
	Event     string `json:"event"`
	ServiceID string `json:"serviceId"`
	DeployID  string `json:"deployId"`
	Branch    string `json:"branch"`
	Source    string `json:"source"`
}

// Receiver implements the deploy-failure auto-remediation flow.
type Receiver struct {
	cfg      types.WebhookConfig
	dedup    *DedupStore
	upstream upstream.Client
	sessions *session.Service
}

// NewReceiver builds a Receiver bound to its dependencies. dedup is shared
// with the Scheduler, whose reaper periodically evicts entries older than
// retention from the same store the receiver writes into.
func NewReceiver(cfg types.WebhookConfig, upstreamClient upstream.Client, sessions *session.Service, dedup *DedupStore) *Receiver {
	return &Receiver{
		cfg:      cfg,
		dedup:    dedup,
		upstream: upstreamClient,
		sessions: sessions,
	}
}

// Verify checks the raw request body against the provider's HMAC header. In
// development mode (no secret configured) verification is skipped and a
// warning is logged, per SPEC_FULL.md §4.8.
func (r *Receiver) Verify(body []byte, signature string) error {
	if r.cfg.Secret == "" {
		logging.Logger.Warn().Msg("webhook signature verification skipped: no secret configured")
		return nil
	}
	return verifySignature(r.cfg.Secret, body, signature)
}

// Handle runs the auto-remediation flow for one already-verified webhook
// body: filter, dedup, fetch logs, create a remediation session.
func (r *Receiver) Handle(ctx context.Context, body []byte) (*types.Session, error) {
	var event DeployEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	if !r.shouldRemediate(event) {
		return nil, nil
	}

	if sessionID, seen := r.dedup.Seen(event.ServiceID, event.DeployID); seen {
		logging.Logger.Debug().Str("serviceId", event.ServiceID).Str("deployId", event.DeployID).Str("sessionId", sessionID).Msg("remediation already in flight, skipping")
		return nil, nil
	}

	logs, err := r.upstream.FetchDeployLogs(ctx, event.DeployID)
	if err != nil {
		return nil, fmt.Errorf("fetch deploy logs: %w", err)
	}
	summary := summarizeErrors(logs, maxErrorLines)

	sess, err := r.sessions.Create(ctx, types.SessionConfig{
		Prompt: fmt.Sprintf("Deploy %s for service %s failed. Build log errors:\n\n%s", event.DeployID, event.ServiceID, summary),
		Source: event.Source,
		Branch: event.Branch,
	})
	if err != nil {
		return nil, err
	}

	r.dedup.Record(event.ServiceID, event.DeployID, sess.ID)
	return sess, nil
}

func (r *Receiver) shouldRemediate(event DeployEvent) bool {
	if event.Event != deployFailedEvent {
		return false
	}
	if !r.cfg.AutoFixEnabled {
		return false
	}
	return slices.Contains(r.cfg.MonitoredServices, event.ServiceID)
}

// summarizeErrors extracts up to maxLines lines matching errorLinePattern.
func summarizeErrors(logs string, maxLines int) string {
	var buf bytes.Buffer
	lines := 0
	for _, line := range strings.Split(logs, "\n") {
		if !errorLinePattern.MatchString(line) {
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		lines++
		if lines >= maxLines {
			break
		}
	}
	return buf.String()
}
