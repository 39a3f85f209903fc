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
	// Configuration Errors (E100-E199)

	"E101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No signup.yaml, signup.yml or signup.json was found. Defaults are used unless a file is given with --config.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Config file could not be parsed",
		Detail:   "The configuration file is not valid YAML or JSON.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations use Go syntax such as 500ms, 1s or 2m.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Unknown storage driver",
		Detail:   "storage.driver must be \"memory\" or \"s3\".",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "S3 bucket not configured",
		Detail:   "The s3 storage driver needs storage.s3.bucket.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid log setting",
		Detail:   "log.level must be debug, info, warn or error. log.format must be text or json.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Invalid server setting",
		Detail:   "Timeouts must not be negative and live.maxMessageBytes must be positive.",
	},

	// Validation Errors (E200-E299)

	"E201": {
		Category: CategoryValidation,
		Message:  "Values failed validation",
		Detail:   "One or more fields do not satisfy the signup rules.",
	},
	"E202": {
		Category: CategoryValidation,
		Message:  "Values file could not be read",
		Detail:   "The values file must be a YAML or JSON object with the signup fields.",
	},
	"E203": {
		Category: CategoryValidation,
		Message:  "Unknown field in values file",
		Detail:   "Only username, email, password, confirmPassword and acceptTerms are accepted.",
	},

	// Submission Errors (E300-E399)

	"E301": {
		Category: CategorySubmission,
		Message:  "Username is already taken",
		Detail:   "The username is reserved or belongs to an existing account.",
	},
	"E302": {
		Category: CategorySubmission,
		Message:  "Submission cancelled",
		Detail:   "The submission was interrupted before it completed.",
	},
	"E303": {
		Category: CategorySubmission,
		Message:  "Receipt store unavailable",
		Detail:   "The account receipt could not be checked or saved.",
	},

	// CLI Errors (E400-E499)

	"E401": {
		Category: CategoryCLI,
		Message:  "Invalid command usage",
	},
	"E402": {
		Category: CategoryCLI,
		Message:  "Prompt aborted",
		Detail:   "The interactive prompt was interrupted.",
	},
	"E403": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
}

// Register adds or replaces an error template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	template, ok := registry[code]
	return template, ok
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ByCategory returns the registered codes of a category in order.
func ByCategory(category Category) []string {
	var codes []string
	for _, code := range Codes() {
		if registry[code].Category == category {
			codes = append(codes, code)
		}
	}
	return codes
}
