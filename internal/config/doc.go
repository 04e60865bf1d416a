// Package config provides layered configuration loading, merging, hot-reload,
// and path management for the gateway (SPEC_FULL.md §6, §10).
//
// # Configuration Loading
//
// Load implements a layered configuration strategy, merging sources in
// priority order:
//
//  1. Global config (~/.config/mcp-gateway/gateway.{json,jsonc,yaml})
//  2. Project config (<directory>/.mcp-gateway/gateway.{json,jsonc,yaml})
//  3. .env file in <directory>, loaded before step 4
//  4. Environment variables (highest precedence; see applyEnvOverrides)
//
// # Supported Formats
//
// JSON, JSON-with-comments (stripped before decoding, following the
// teacher's approach), and YAML are all accepted; the file extension
// selects the decoder.
//
// # Path Management
//
// Paths follows the XDG Base Directory Specification, matching the
// teacher's internal/config/paths.go shape, rooted under mcp-gateway
// instead of opencode.
//
// # Hot Reload
//
// Watcher (watcher.go) watches the resolved project config file with
// fsnotify and republishes a notify.ConfigChanged event on write, adapted
// from the teacher's internal/vcs/watcher.go .git/HEAD watcher.
package config
