package webhook

import "github.com/google/go-github/v68/github"

// SignatureHeader is the HMAC header carrying the hex-encoded HMAC-SHA256 of
// the raw request body, per SPEC_FULL.md §6 ("X-Signature-SHA256:
// sha256=<hex>").
const SignatureHeader = "X-Signature-SHA256"

// verifySignature checks payload against the header's HMAC-SHA256 signature
// in constant time, grounded on the teacher's own verifyWebhookSignature in
// the mattermost-plugin-cursor pack but delegated to go-github's own
// constant-time comparator rather than hand-rolling hmac.Equal again.
func verifySignature(secret string, payload []byte, signature string) error {
	return github.ValidateSignature(signature, payload, []byte(secret))
}
