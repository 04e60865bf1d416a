// Package template implements the Template Registry (SPEC_FULL.md §4.7):
// named, reusable session configurations with a duplicate-name check, a
// 100-character name limit, and a 100-template registry cap.
//
// Grounded on the teacher's storage CRUD idiom (internal/session/service.go's
// load/save-via-internal/storage shape); no third-party library models a
// named-config registry more directly than that.
package template
