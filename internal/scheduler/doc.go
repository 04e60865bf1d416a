// Package scheduler drives the gateway's background loops (SPEC_FULL.md §5):
// the session monitoring sweep (poll every non-terminal, non-awaiting-
// approval session, flag sessions stuck on an unchanged snapshot), the
// Priority Queue / Task Queue drain, and the webhook dedup reaper.
//
// Grounded on mattermost-plugin-cursor's server/poller.go: one ticker-driven
// sweep (pollAgentStatuses) that polls every active agent and ends with a
// secondary janitor pass (janitorSweep), generalized here into a poll tick
// (monitor + drain) and a separate, slower reap tick.
package scheduler
