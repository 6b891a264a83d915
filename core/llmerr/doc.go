// Package llmerr defines the error taxonomy shared by the request pipeline:
// validation, authentication, and transport sentinels for errors.Is
// classification, ProviderError for HTTP-level context, and
// PartialStreamError so content assembled before a mid-stream failure is
// never swallowed.
package llmerr
