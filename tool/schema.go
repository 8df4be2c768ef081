package tool

import (
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

// schemaFor builds an inlined schema for t. With references disabled the
// root is already the struct's own schema. ExpandedStruct is left off because
// it looks the root up in a definitions table that only named structs enter.
func schemaFor(t reflect.Type) *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.ReflectFromType(t)
}

// objectInputSchema reflects a struct or map type received as the whole
// argument object.
func objectInputSchema(t reflect.Type) mcp.ToolInputSchema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Map {
		return mcp.ToolInputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}, AdditionalProperties: true}
	}
	s := schemaFor(t)
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties(s),
		Required:   slices.Clone(s.Required),
	}
}

// namedInputSchema builds an object schema with one property per named
// parameter.
func namedInputSchema(names []string, types []reflect.Type, optional []string) mcp.ToolInputSchema {
	out := mcp.ToolInputSchema{Type: "object", Properties: make(map[string]mcp.SchemaProperty, len(names))}
	for i, name := range names {
		t := types[i]
		out.Properties[name] = propertyForType(t)
		if t.Kind() != reflect.Pointer && !slices.Contains(optional, name) {
			out.Required = append(out.Required, name)
		}
	}
	return out
}

// outputSchema reflects the value type of a structured tool. Only object
// shapes produce a schema.
func outputSchema(t reflect.Type) *mcp.ToolOutputSchema {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	s := schemaFor(t)
	if s == nil || s.Type != "object" {
		return nil
	}
	return &mcp.ToolOutputSchema{Type: "object", Properties: properties(s), Required: slices.Clone(s.Required)}
}

func propertyForType(t reflect.Type) mcp.SchemaProperty {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		return mcp.SchemaProperty{}
	}
	return toMCPProperty(schemaFor(t))
}

func properties(s *jsonschema.Schema) map[string]mcp.SchemaProperty {
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	return props
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		p.Properties = properties(s)
	}
	return p
}
