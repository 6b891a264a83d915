package observability

// Attribute keys shared across the module so spans and logs stay queryable
// with one vocabulary.
const (
	AttrLLMProvider = "llm.provider"
	AttrLLMEndpoint = "llm.endpoint"
	AttrLLMModel    = "llm.model"
	AttrLLMStrategy = "llm.strategy"

	AttrRequestMessagesCount = "request.messages.count"

	AttrHTTPMethod           = "http.method"
	AttrHTTPURL              = "http.url"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// Span event names.
const (
	EventLLMRequestStart = "llm.request.start"
	EventLLMRequestEnd   = "llm.request.end"
	EventKeyRefresh      = "llm.auth.key_refresh"
)
