// Package upstream implements the Upstream Client (SPEC_FULL.md §4.4): the
// gateway's single point of contact with the upstream coding-agent
// provider. It translates typed session verbs into individual HTTPS calls,
// adapted from the teacher's server/cursor/client.go hand-rolled retry loop
// but replacing the retry and circuit-breaking logic with cenkalti/backoff
// and sony/gobreaker, and adding a response cache and dual auth schemes.
package upstream
