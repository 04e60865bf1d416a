// Package session implements the Session Manager: the gateway's session
// lifecycle state machine (pending -> planning -> awaiting_approval |
// executing -> completed | failed | cancelled) and the operations that
// drive it.
//
// # Components
//
//   - Service: create/get/list/send-message/approve/cancel/delete plus the
//     diff, clone, retry, fuzzy-search, and monitoring operations.
//   - record: the persisted envelope around a types.Session, keyed by the
//     upstream provider's own session identifier.
//   - validateCreateConfig: create() input validation.
//   - renderDiff: unified-diff rendering of an upstream-reported before/after.
//   - matchesQuery/matchesState: fuzzy and exact session lookups.
//
// Service depends only on the upstream.Client interface and internal/storage,
// and publishes lifecycle events over internal/notify. It never talks HTTP
// directly.
//
//	svc := session.NewService(store, upstreamClient)
//	sess, err := svc.Create(ctx, types.SessionConfig{
//		Prompt: "fix the flaky retry test",
//		Source: "sources/github/acme/widget",
//	})
//
// Scheduling is out of scope here: Poll performs one upstream sync for a
// single session. The cadence and attempt budget for repeatedly calling it
// belong to internal/scheduler.
package session
