// Package webhook implements the Webhook Receiver (SPEC_FULL.md §4.8):
// HMAC-SHA256 signature verification over raw request bytes and the
// deploy-failure auto-remediation flow (filter -> dedup -> fetch build logs
// -> create a remediation session).
//
// Grounded on the teacher pack's mattermost-plugin-cursor server/webhook.go
// (signature verification over the raw body, event filtering, idempotency
// by a bounded key) and the teacher's internal/sharing token manager (the
// sliding-expiry map idiom DedupStore adapts).
package webhook
