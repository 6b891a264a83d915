package strategy

import (
	"encoding/json"

	"github.com/outlinehq/outline/internal/utils"
	"github.com/outlinehq/outline/providers/ai"
)

// Normalize extracts the uniform content value from a completed response.
// Tool calls are checked before plain content because some providers embed
// both; the first tool call's arguments are the structured payload. The
// return type is always a string so schema-driven and plain calls share one
// contract.
func Normalize(response *ai.ChatResponse) string {
	if response == nil {
		return ""
	}
	if len(response.ToolCalls) > 0 {
		return response.ToolCalls[0].Function.Arguments
	}
	return response.Content
}

// NormalizeEnvelope extracts content from a raw, unconverted provider
// envelope. It exists for callers plugging in providers this module does not
// model natively, and branches over the known shapes in fixed preference
// order:
//
//  1. a direct tool-use block, {"type": "tool_use", "input": {...}}
//  2. an object wrapping tool-use blocks in a content array
//  3. an array of function-call descriptors (OpenAI style)
//  4. anything else passes through, with non-strings stringified
//
// Tool-call shapes are tried before plain content deliberately: when a
// provider embeds both, the tool call is the structured payload.
func NormalizeEnvelope(envelope any) string {
	switch value := envelope.(type) {
	case nil:
		return ""

	case string:
		return value

	case map[string]any:
		if payload, ok := toolUseInput(value); ok {
			return payload
		}
		if blocks, ok := value["content"].([]any); ok {
			for _, block := range blocks {
				if blockMap, ok := block.(map[string]any); ok {
					if payload, ok := toolUseInput(blockMap); ok {
						return payload
					}
				}
			}
		}
		return utils.JSONToString(value)

	case []any:
		if payload, ok := functionCallArguments(value); ok {
			return payload
		}
		return utils.JSONToString(value)

	default:
		return utils.JSONToString(value)
	}
}

// toolUseInput extracts the input payload of a tool-use block.
func toolUseInput(block map[string]any) (string, bool) {
	if block["type"] != "tool_use" {
		return "", false
	}
	input, present := block["input"]
	if !present {
		return "", false
	}
	if text, ok := input.(string); ok {
		return text, true
	}
	return utils.JSONToString(input), true
}

// functionCallArguments extracts the first element's arguments string from
// an OpenAI-style function-call array.
func functionCallArguments(calls []any) (string, bool) {
	if len(calls) == 0 {
		return "", false
	}
	first, ok := calls[0].(map[string]any)
	if !ok {
		return "", false
	}
	function, ok := first["function"].(map[string]any)
	if !ok {
		return "", false
	}
	if arguments, ok := function["arguments"].(string); ok {
		return arguments, true
	}
	return "", false
}

// StringifyContent guarantees the string contract for content that may be a
// decoded JSON value: strings pass through, everything else is serialized.
func StringifyContent(content any) string {
	if text, ok := content.(string); ok {
		return text
	}
	if raw, ok := content.(json.RawMessage); ok {
		return string(raw)
	}
	return utils.JSONToString(content)
}
