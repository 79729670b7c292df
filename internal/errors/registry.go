package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (S001-S009)
	"S001": {
		Category:   CategoryConfig,
		Message:    "Cannot read configuration file",
		Suggestion: "Check the path passed with --config and its permissions.",
	},
	"S002": {
		Category:   CategoryConfig,
		Message:    "Cannot parse configuration file",
		Suggestion: "signalscope.json must be valid JSON and signalscope.yaml valid YAML.",
	},
	"S003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// Runtime (S010-S019)
	"S010": {
		Category:   CategoryRuntime,
		Message:    "Render loop is not available",
		Suggestion: "The loop was shut down before the render was scheduled.",
	},
	"S011": {
		Category: CategoryRuntime,
		Message:  "Component render failed",
	},

	// Devtools (S020-S029)
	"S020": {
		Category:   CategoryDevtools,
		Message:    "Devtools server failed",
		Suggestion: "Make sure devtools.addr is free or pick another address.",
	},
	"S021": {
		Category: CategoryDevtools,
		Message:  "Devtools websocket upgrade failed",
	},
	"S022": {
		Category:   CategoryDevtools,
		Message:    "Invalid event filter",
		Suggestion: `Filters are boolean expressions over Kind, ScopeID, Mode, Version, Action, Restored and Seq, e.g. Kind == "reaped".`,
	},

	// CLI (S030-S039)
	"S030": {
		Category:   CategoryCLI,
		Message:    "Unknown demo scenario",
		Suggestion: "Run `signalscope demo --list` to see available scenarios.",
	},
}

// Codes returns every registered code in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
