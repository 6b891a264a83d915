// Package openai implements the provider contract for OpenAI's chat
// completions API. Because the wire format is the de-facto industry standard,
// this provider also serves any OpenAI-compatible endpoint via WithBaseURL,
// and is the fallback wire for models whose vendor is unknown.
package openai
