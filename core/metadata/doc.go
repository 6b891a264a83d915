// Package metadata attaches per-call diagnostics (timings, token counts,
// raw provider payloads) to result values out of band, so the result payload
// itself stays clean. Entries are keyed by handle identity through weak
// pointers and disappear with the handle, so attaching metadata never
// extends a result's lifetime.
package metadata
