package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// StringAs parses content into the target type T. Primitive targets (string,
// bool, int, uint, float) use direct conversion; complex targets use JSON
// unmarshaling with a jsonrepair retry when the strict parse fails, since
// model output is occasionally almost-JSON (single quotes, trailing commas,
// unquoted keys).
//
//	book, err := parse.StringAs[Book](`{"title": "Dune", "year": 1965}`)
//	year, err := parse.StringAs[int]("1965")
func StringAs[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		parsed, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(parsed)
		return result, nil

	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(parsed)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(parsed)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(parsed)
		return result, nil

	default:
		err := json.Unmarshal([]byte(content), &result)
		if err == nil {
			return result, nil
		}

		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
		}
		if err = json.Unmarshal([]byte(repaired), &result); err != nil {
			return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
		}
		return result, nil
	}
}
