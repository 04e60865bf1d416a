// Package validator implements the Validator (SPEC_FULL.md §4.11):
// schema-driven validation of a tool's parameters, built from the Tool
// Registry's ParamSpec catalog rather than hand-authored schema documents.
// On failure the handler is never invoked; the caller renders a 400 with a
// structured issue list.
//
// Grounded on goadesign-goa-ai's registry/service.go
// (validatePayloadJSONAgainstSchema: unmarshal, compile, validate).
package validator
