// Package batch implements the Batch Processor (SPEC_FULL.md §4.5): a
// worker pool that fans a task list out to the Session Manager with a
// bounded number of non-terminal member sessions in flight at once.
//
// Grounded on golang.org/x/sync's semaphore plus a sync.WaitGroup
// (present across the example pack); the polling-to-terminal shape for each
// member reuses internal/session's Poll building block directly rather than
// duplicating it.
package batch
