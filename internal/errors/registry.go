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
	// ============================================
	// Protocol Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryProtocol,
		Message:  "Method not found",
		Detail:   "The remote peer does not serve the requested method.",
	},
	"E002": {
		Category: CategoryProtocol,
		Message:  "Call timed out",
		Detail:   "No response arrived before the call deadline. The peer may be overloaded or unreachable.",
	},
	"E003": {
		Category: CategoryProtocol,
		Message:  "Channel closed",
		Detail:   "The connection closed while the call was in flight.",
	},
	"E004": {
		Category: CategoryProtocol,
		Message:  "Handler failed",
		Detail:   "The remote handler returned an error for this request.",
	},

	// ============================================
	// Transport Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryTransport,
		Message:  "Connection failed",
		Detail:   "The WebSocket endpoint could not be reached.",
	},
	"E101": {
		Category: CategoryTransport,
		Message:  "Handshake rejected",
		Detail:   "The server refused the WebSocket upgrade request.",
	},
	"E102": {
		Category: CategoryTransport,
		Message:  "TLS material unavailable",
		Detail:   "The configured certificate or key could not be loaded.",
	},
	"E103": {
		Category: CategoryTransport,
		Message:  "Listen address unavailable",
		Detail:   "The configured address could not be bound.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Missing endpoint URL",
		Detail:   "The command needs a ws:// or wss:// endpoint to connect to.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Invalid request payload",
		Detail:   "The request payload must be valid JSON.",
	},
}
