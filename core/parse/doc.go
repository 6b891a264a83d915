// Package parse turns model output back into values. Assembler reassembles a
// JSON value from arbitrarily fragmented stream deltas without ever parsing
// an incomplete buffer; StringAs decodes final content into a Go type with a
// jsonrepair fallback for almost-JSON output.
package parse
