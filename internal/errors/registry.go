package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Registry (S100-S199)

	"S101": {
		Category: CategoryRegistry,
		Message:  "Initial state override has the wrong type",
		Detail:   "The value configured for this store name cannot be used as the store's state type. The store's own initial state was used instead.",
	},
	"S102": {
		Category: CategoryRegistry,
		Message:  "Initial state override could not be decoded",
		Detail:   "The raw JSON configured for this store name does not decode into the store's state type.",
	},
	"S103": {
		Category: CategoryRegistry,
		Message:  "Patch type does not match store",
		Detail:   "A middleware replaced the update patch with a value of a different type. The update was dropped.",
	},
	"S104": {
		Category: CategoryRegistry,
		Message:  "Middleware panicked",
		Detail:   "A middleware or mutator panicked while applying an update. The update was dropped.",
	},

	// Config (S200-S299)

	"S201": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"S202": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"S203": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// Snapshot (S300-S399)

	"S301": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
	},
	"S302": {
		Category: CategorySnapshot,
		Message:  "Snapshot backend failure",
		Detail:   "The snapshot backend returned an error while reading or writing.",
	},
	"S303": {
		Category: CategorySnapshot,
		Message:  "Snapshot encoding failure",
		Detail:   "A store state could not be encoded to or decoded from JSON.",
	},
	"S304": {
		Category: CategorySnapshot,
		Message:  "Unknown snapshot backend",
	},

	// Devtools (S400-S499)

	"S401": {
		Category: CategoryDevtools,
		Message:  "Devtools connection failed",
	},
	"S402": {
		Category: CategoryDevtools,
		Message:  "Store not found",
		Detail:   "No live store instance is registered under this id.",
	},

	// CLI (S500-S599)

	"S501": {
		Category: CategoryCLI,
		Message:  "Invalid command arguments",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
