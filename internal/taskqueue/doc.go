// Package taskqueue implements the Task Queue (SPEC_FULL.md §4.12): an
// external-ingest admission path (e.g. an issue tagged with a watched
// label) that materializes exactly one session per accepted task, retrying
// failures with backoff before marking a task exhausted.
//
// Mirrors internal/queue's admission shape (its own map + mutex, no heap
// since task order has no priority dimension); retry backoff reuses
// cenkalti/backoff/v4, already pulled in by internal/upstream.
package taskqueue
