package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is the default cap used by [TruncateStringDefault].
const DefaultMaxStringLength = 500

// JSONToString serialises object to compact JSON. On marshalling failure it
// returns a JSON-formatted error string instead of panicking, so the result
// is always safe to embed in log output.
func JSONToString(object any) string {
	encoded, err := json.Marshal(object)
	if err != nil {
		return "{\"error\": \"failed to marshal to JSON: " + err.Error() + "\"}"
	}
	return string(encoded)
}

// TruncateString shortens s to at most maxLen characters, appending a suffix
// recording the original length so readers know data was omitted. A zero or
// negative maxLen falls back to [DefaultMaxStringLength].
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// TruncateStringDefault truncates s using DefaultMaxStringLength.
func TruncateStringDefault(s string) string {
	return TruncateString(s, DefaultMaxStringLength)
}
