package jsonschema

import (
	"reflect"
	"strings"
)

// Schema is the subset of JSON Schema this module renders into provider
// requests: object shapes, property types, required lists, enums, and the
// additionalProperties switch that strict structured-output modes rely on.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
}

// PropertyNames returns the declared property names in no particular order.
func (s *Schema) PropertyNames() []string {
	if s == nil || len(s.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	return names
}

// Generate builds a Schema describing T through reflection. Field names come
// from json tags (falling back to the Go name), descriptions and required
// markers from the jsonschema tag:
//
//	type Book struct {
//	    Title  string `json:"title" jsonschema:"description=Book title,required"`
//	    Rating int    `json:"rating" jsonschema:"required"`
//	}
//
// Recursive types are cut off with a bare object schema at the point of
// re-entry; structured-output payloads are flat in practice and providers
// reject $ref-heavy schemas anyway.
func Generate[T any]() *Schema {
	return generate(reflect.TypeFor[T](), make(map[reflect.Type]bool))
}

func generate(t reflect.Type, visiting map[reflect.Type]bool) *Schema {
	switch t.Kind() {
	case reflect.Pointer:
		return generate(t.Elem(), visiting)

	case reflect.Struct:
		if visiting[t] {
			return &Schema{Type: "object"}
		}
		visiting[t] = true
		defer delete(visiting, t)
		return generateStruct(t, visiting)

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: generate(t.Elem(), visiting)}

	case reflect.Map:
		return &Schema{Type: "object"}

	default:
		// chan, func, interface: nothing sensible to declare.
		return &Schema{}
	}
}

func generateStruct(t reflect.Type, visiting map[reflect.Type]bool) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, skip := fieldName(field)
		if skip {
			continue
		}

		fieldSchema := generate(field.Type, visiting)
		required := applyTag(fieldSchema, field.Tag.Get("jsonschema"))
		schema.Properties[name] = fieldSchema
		if required {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// fieldName resolves the JSON property name for a struct field, honoring
// `json:"-"` exclusions and tag renames.
func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name := field.Name
	if tag != "" {
		if comma := strings.Index(tag, ","); comma >= 0 {
			tag = tag[:comma]
		}
		if tag != "" {
			name = tag
		}
	}
	return name, false
}

// applyTag parses the jsonschema struct tag into the field schema and reports
// whether the field was marked required. Recognized directives:
// description=..., required, enum=... (repeatable).
func applyTag(schema *Schema, tag string) bool {
	if tag == "" {
		return false
	}

	required := false
	for _, part := range strings.Split(tag, ",") {
		switch {
		case part == "required":
			required = true
		case strings.HasPrefix(part, "description="):
			schema.Description = strings.TrimPrefix(part, "description=")
		case strings.HasPrefix(part, "enum="):
			schema.Enum = append(schema.Enum, strings.TrimPrefix(part, "enum="))
		}
	}
	return required
}
