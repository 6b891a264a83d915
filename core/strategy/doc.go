// Package strategy decides how a structured-output schema is attached to a
// chat request and how the resulting response is read back.
//
// Model capabilities differ: some families accept native JSON-schema response
// formats, some are steered through a forced tool call, and the rest fall
// back to schema instructions appended to the system prompt. Select inspects
// the model name against a configurable family list and returns a Strategy
// that rewrites the outgoing request and normalizes the completed response
// into a plain string.
package strategy
