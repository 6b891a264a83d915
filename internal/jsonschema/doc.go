// Package jsonschema holds the Schema type rendered into provider requests
// and a reflective generator for building one from a Go type. Validation of
// schema semantics is out of scope; the structure is passed through to the
// provider as-is.
package jsonschema
