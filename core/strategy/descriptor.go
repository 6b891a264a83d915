package strategy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/outlinehq/outline/internal/jsonschema"
)

// Descriptor names a structured-output schema. It is the caller-facing input
// the selector and strategies work from.
type Descriptor struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	// rawText holds the original text when it failed to parse as a schema
	// object. A degraded descriptor can still be rendered as plain-text
	// instructions; it cannot drive tool or response-format rendering.
	rawText string
}

// descriptorJSON is the accepted wire shape of a descriptor:
//
//	{"name": "book_recommendation", "properties": {"title": {...}}, "required": [...]}
type descriptorJSON struct {
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	Type        string                        `json:"type"`
	Properties  map[string]*jsonschema.Schema `json:"properties"`
	Required    []string                      `json:"required"`
}

// NewDescriptor builds a Descriptor from an already-constructed schema.
func NewDescriptor(name string, schema *jsonschema.Schema) *Descriptor {
	return &Descriptor{Name: name, Schema: schema}
}

// DescriptorFor builds a Descriptor whose schema is generated from T.
func DescriptorFor[T any](name string) *Descriptor {
	return &Descriptor{Name: name, Schema: jsonschema.Generate[T]()}
}

// DescriptorFromJSON parses raw into a Descriptor. It never fails: input that
// does not parse as a schema object degrades to a plain-text description,
// which the system-message strategy can still render. This lenient-fallback
// policy means a malformed schema costs output quality, not a request.
func DescriptorFromJSON(raw []byte) *Descriptor {
	var parsed descriptorJSON
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Properties) == 0 {
		return &Descriptor{rawText: string(raw)}
	}

	schemaType := parsed.Type
	if schemaType == "" {
		schemaType = "object"
	}
	return &Descriptor{
		Name:        parsed.Name,
		Description: parsed.Description,
		Schema: &jsonschema.Schema{
			Type:       schemaType,
			Properties: parsed.Properties,
			Required:   parsed.Required,
		},
	}
}

// Degraded reports whether the descriptor failed to parse as a schema object
// and only its plain-text rendering is usable.
func (d *Descriptor) Degraded() bool {
	return d.Schema == nil
}

// InstructionText renders the descriptor as human-readable instructions for
// models with no native structured-output support. Property names are listed
// in sorted order so the rendering is stable.
func (d *Descriptor) InstructionText() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object")
	if d.Name != "" {
		fmt.Fprintf(&b, " named %q", d.Name)
	}
	b.WriteString(" and no surrounding prose.")

	if d.Degraded() {
		if d.rawText != "" {
			fmt.Fprintf(&b, " The object must match this description: %s", d.rawText)
		}
		return b.String()
	}

	if d.Description != "" {
		b.WriteString(" " + d.Description)
	}

	names := d.Schema.PropertyNames()
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString(" The object must contain these properties:")
		for _, name := range names {
			property := d.Schema.Properties[name]
			fmt.Fprintf(&b, "\n- %q", name)
			if property != nil && property.Type != "" {
				fmt.Fprintf(&b, " (%s)", property.Type)
			}
			if property != nil && property.Description != "" {
				b.WriteString(": " + property.Description)
			}
		}
	}

	return b.String()
}

// requestSchema returns a copy of the schema prepared for strict provider
// rendering: additionalProperties defaults to false and required defaults to
// every declared property name, unless the descriptor set them explicitly.
func (d *Descriptor) requestSchema() *jsonschema.Schema {
	if d.Schema == nil {
		return nil
	}

	prepared := *d.Schema
	if prepared.AdditionalProperties == nil {
		prepared.AdditionalProperties = false
	}
	if len(prepared.Required) == 0 {
		names := prepared.PropertyNames()
		sort.Strings(names)
		prepared.Required = names
	}
	return &prepared
}
