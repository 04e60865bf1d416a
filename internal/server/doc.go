// Package server implements the HTTP Gateway (SPEC_FULL.md §4.1): the
// single JSON-over-HTTP surface in front of the Tool Registry, Session
// Manager, Batch Processor, Priority Queue, Template Registry, Webhook
// Receiver, Task Queue, and Notification Bus.
//
// Every inbound request passes through, in order: requestId assignment,
// a body-size cap, CORS, and (on /mcp/*) sliding-window rate limiting,
// before reaching a route handler. Handler errors are mapped through
// internal/apperr onto the {success, error:{message, requestId,
// statusCode}} envelope rather than being inspected ad hoc per-handler.
package server
