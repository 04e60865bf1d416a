// Package queue implements the Priority Queue (SPEC_FULL.md §4.6): bounded
// admission of session-creation requests ordered by an integer priority
// (lower wins, ties broken by insertion order), with a drain contract that
// atomically claims an item before any upstream call.
//
// Heap-backed (container/heap); no pack library models a priority queue
// more directly than the standard library's own heap interface.
package queue
