package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No cellclient.json was found at the given path.",
		Suggestion: "Run 'cellclient config init' to write one with default values",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Detail:     "cellclient.json could not be parsed as JSON.",
		Suggestion: "Check that cellclient.json is valid JSON",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or malformed.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Config write failed",
		Detail:   "The configuration file could not be written.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid identity",
		Detail:   "Identity names, skins and hats must not contain control characters; colors are 3 or 6 hex digits.",
	},

	// ============================================
	// Transport Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryTransport,
		Message:    "Invalid server URL",
		Detail:     "Server URLs must use the ws or wss scheme.",
		Suggestion: "Use a URL like ws://127.0.0.1:443",
	},
	"E121": {
		Category: CategoryTransport,
		Message:  "Connection failed",
		Detail:   "The game server could not be reached.",
	},
	"E122": {
		Category: CategoryTransport,
		Message:  "Debug listener failed",
		Detail:   "The inspection HTTP server could not bind its address.",
	},

	// ============================================
	// Protocol Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryProtocol,
		Message:  "Frame decode failed",
		Detail:   "A server frame was truncated or malformed.",
	},
	"E141": {
		Category: CategoryProtocol,
		Message:  "Unknown action",
		Detail:   "The action name is not one of the supported single-byte actions.",
	},

	// ============================================
	// Recording Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryRecording,
		Message:  "Recording unreadable",
		Detail:   "The file is not a recording or is damaged.",
	},
	"E161": {
		Category: CategoryRecording,
		Message:  "Recording failed",
		Detail:   "The recording file could not be created or written.",
	},
	"E162": {
		Category:   CategoryRecording,
		Message:    "Recording upload failed",
		Detail:     "The recording could not be uploaded to the configured bucket.",
		Suggestion: "Check AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and the recording.bucket setting",
	},

	// ============================================
	// CLI Errors (E180-E199)
	// ============================================

	"E180": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
	"E181": {
		Category: CategoryCLI,
		Message:  "Unknown session role",
		Detail:   "Session roles are 'primary' and 'secondary'.",
	},
	"E182": {
		Category:   CategoryCLI,
		Message:    "File already exists",
		Suggestion: "Use --force to overwrite",
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

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
