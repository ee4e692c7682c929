// Package customtool implements the dispatcher that surfaces
// user-defined HTTP or script endpoints as first-class tools
// (spec.md §4.5): parameter schema construction, execution, and
// result normalization.
package customtool

import "github.com/anthropics/agentctl/internal/appconfig"

// Config is spec.md §3's custom tool config record. It is the same
// shape the config loader parses, reused here rather than duplicated.
type Config = appconfig.CustomToolConfig

// Parameter is spec.md §3's per-parameter declaration.
type Parameter = appconfig.CustomToolParameter

const defaultTimeoutSeconds = 30

// maxCapturedOutput caps script-mode captured output, per spec.md
// §4.5 "cap captured output at 1 MiB".
const maxCapturedOutput = 1 << 20

// Result is the normalized dispatch outcome (spec.md §4.5
// "Result normalization").
type Result struct {
	Status string `json:"status"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}
