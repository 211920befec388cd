package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Config errors (E100-E119)

	"E101": {
		Category: CategoryConfig,
		Message:  "No sigil.json found",
		Detail:   "The configuration file could not be located in the working directory.",
		DocURL:   "https://sigil-ui.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Failed to read sigil.json",
		Detail:   "The configuration file exists but could not be read or parsed.",
		DocURL:   "https://sigil-ui.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field is out of range or malformed.",
		DocURL:   "https://sigil-ui.dev/docs/errors/E103",
	},

	// CLI errors (E120-E139)

	"E120": {
		Category: CategoryCLI,
		Message:  "Invalid benchmark parameters",
		Detail:   "The benchmark workload parameters do not describe a runnable workload.",
		DocURL:   "https://sigil-ui.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryCLI,
		Message:  "Inspector failed to start",
		Detail:   "The inspector HTTP server could not bind its address.",
		DocURL:   "https://sigil-ui.dev/docs/errors/E121",
	},
}
