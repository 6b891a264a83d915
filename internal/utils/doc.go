// Package utils contains small internal helpers shared across the module:
// JSON-over-HTTP request plumbing, string truncation for log output, a
// wall-clock timer, and a generic pointer constructor. Nothing in this
// package is part of the public API.
package utils
