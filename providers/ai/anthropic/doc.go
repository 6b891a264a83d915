// Package anthropic implements the provider contract for Anthropic's
// Messages API: x-api-key authentication, version-pinned wire format,
// content-block responses, and tool_use streaming via input_json_delta
// events. Structured output is expressed as a forced tool call, since the
// Messages API has no response_format directive.
package anthropic
