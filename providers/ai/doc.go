// Package ai defines the provider-agnostic chat contract: request/response
// types, the Provider and StreamProvider interfaces, and the ChatStream
// iterator used for incremental delivery. Concrete wire formats live in the
// subpackages (openai, anthropic); everything above the provider layer speaks
// only the types in this package.
package ai
