// Package elicitation projects Go struct types onto the flat object schemas
// accepted by elicitation requests and decodes client answers back into them.
package elicitation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	js "github.com/invopop/jsonschema"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

// field captures per-property decoding expectations.
type field struct {
	name     string
	index    []int
	required bool
	kind     reflect.Kind
	pointer  bool
	enum     map[string]struct{}
	min, max *float64
}

// Projection is the cached schema and decoding plan for one struct type.
type Projection struct {
	typ    reflect.Type
	schema mcp.ElicitationSchema
	fields []field
}

var cache sync.Map // map[reflect.Type]*Projection

// Project derives the elicitation schema for t, which must be a struct or a
// pointer to one. Nested objects, arrays and composition keywords are rejected.
func Project(t reflect.Type) (*Projection, error) {
	if t == nil {
		return nil, errors.New("elicitation: nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("elicitation: type must be struct kind, got %s", t.Kind())
	}
	if v, ok := cache.Load(t); ok {
		return v.(*Projection), nil
	}

	byName := map[string]reflect.StructField{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		byName[name] = f
	}

	r := &js.Reflector{DoNotReference: true}
	root := r.ReflectFromType(t)
	if root == nil || root.Type != "object" {
		return nil, errors.New("elicitation: projected root not object")
	}
	required := map[string]struct{}{}
	for _, n := range root.Required {
		required[n] = struct{}{}
	}

	p := &Projection{typ: t, schema: mcp.ElicitationSchema{Type: "object", Properties: map[string]mcp.PrimitiveSchemaDefinition{}}}
	if root.Properties != nil {
		for el := root.Properties.Oldest(); el != nil; el = el.Next() {
			name, v := el.Key, el.Value
			if v == nil {
				return nil, fmt.Errorf("elicitation: nil property schema for %s", name)
			}
			if v.Type == "object" || v.Type == "array" || v.Ref != "" || len(v.AllOf) > 0 || len(v.AnyOf) > 0 || len(v.OneOf) > 0 || v.Not != nil {
				return nil, fmt.Errorf("elicitation: unsupported schema feature on field %s", name)
			}
			sf, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("elicitation: property %s not matched to struct field", name)
			}
			ft, ptr := sf.Type, false
			if ft.Kind() == reflect.Pointer {
				ft, ptr = ft.Elem(), true
			}
			typ, ok := protocolType(v.Type, ft.Kind())
			if !ok {
				return nil, fmt.Errorf("elicitation: unsupported type mapping for field %s", name)
			}

			def := mcp.PrimitiveSchemaDefinition{Type: typ, Description: v.Description}
			fd := field{name: name, index: sf.Index, kind: ft.Kind(), pointer: ptr}
			if len(v.Enum) > 0 {
				if typ != "string" {
					return nil, fmt.Errorf("elicitation: enum only on string (%s)", name)
				}
				fd.enum = make(map[string]struct{}, len(v.Enum))
				for _, ev := range v.Enum {
					s, ok := ev.(string)
					if !ok {
						return nil, fmt.Errorf("elicitation: non-string enum value field %s", name)
					}
					if _, dup := fd.enum[s]; dup {
						return nil, fmt.Errorf("elicitation: duplicate enum values for property %s", name)
					}
					def.Enum = append(def.Enum, s)
					fd.enum[s] = struct{}{}
				}
			}
			if f, err := strconv.ParseFloat(string(v.Minimum), 64); err == nil {
				def.Minimum, fd.min = f, &f
			}
			if f, err := strconv.ParseFloat(string(v.Maximum), 64); err == nil {
				def.Maximum, fd.max = f, &f
			}
			if fd.min != nil && fd.max != nil && *fd.min > *fd.max {
				return nil, fmt.Errorf("elicitation: property %s minimum greater than maximum", name)
			}
			if _, req := required[name]; req && !ptr {
				fd.required = true
				p.schema.Required = append(p.schema.Required, name)
			}
			p.schema.Properties[name] = def
			p.fields = append(p.fields, fd)
		}
	}
	if len(p.fields) == 0 {
		return nil, errors.New("elicitation: struct has no exported fields")
	}
	actual, _ := cache.LoadOrStore(t, p)
	return actual.(*Projection), nil
}

// Schema returns a copy of the projected schema.
func (p *Projection) Schema() mcp.ElicitationSchema {
	out := p.schema
	out.Properties = make(map[string]mcp.PrimitiveSchemaDefinition, len(p.schema.Properties))
	for k, v := range p.schema.Properties {
		out.Properties[k] = v
	}
	out.Required = append([]string(nil), p.schema.Required...)
	return out
}

// Decode populates dst, a non-nil pointer to the projected struct type, from
// the content map returned by the client. Unknown keys fail only when strict
// is set.
func (p *Projection) Decode(dst any, content map[string]any, strict bool) error {
	rv := reflect.ValueOf(dst)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("elicitation: decode target must be non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Type() != p.typ {
		return fmt.Errorf("elicitation: decode target is %s, projection is %s", rv.Type(), p.typ)
	}

	byName := make(map[string]field, len(p.fields))
	for _, f := range p.fields {
		byName[f.name] = f
	}
	if strict {
		for k := range content {
			if _, ok := byName[k]; !ok {
				return fmt.Errorf("elicitation: unknown field %s in response", k)
			}
		}
	}

	seen := make(map[string]struct{}, len(content))
	for name, val := range content {
		f, ok := byName[name]
		if !ok {
			continue
		}
		seen[name] = struct{}{}
		if val == nil {
			if f.required {
				return fmt.Errorf("elicitation: required field %s is null", name)
			}
			continue
		}
		fv := rv.FieldByIndex(f.index)
		if f.pointer {
			if fv.IsNil() {
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			fv = fv.Elem()
		}
		if err := f.set(fv, val); err != nil {
			return err
		}
	}
	for _, f := range p.fields {
		if _, ok := seen[f.name]; f.required && !ok {
			return fmt.Errorf("elicitation: missing required field %s", f.name)
		}
	}
	return nil
}

func (f field) set(target reflect.Value, val any) error {
	switch f.kind {
	case reflect.String:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("elicitation: field %s expected string", f.name)
		}
		if f.enum != nil {
			if _, ok := f.enum[s]; !ok {
				return fmt.Errorf("elicitation: field %s enum mismatch", f.name)
			}
		}
		target.SetString(s)
	case reflect.Bool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("elicitation: field %s expected boolean", f.name)
		}
		target.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := f.number(val)
		if err != nil {
			return err
		}
		target.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := f.number(val)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("elicitation: field %s expected non-negative number", f.name)
		}
		target.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		n, err := f.number(val)
		if err != nil {
			return err
		}
		target.SetFloat(n)
	default:
		return fmt.Errorf("elicitation: unsupported field kind %s", f.kind)
	}
	return nil
}

func (f field) number(val any) (float64, error) {
	var n float64
	switch v := val.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("elicitation: field %s expected number", f.name)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("elicitation: field %s expected number", f.name)
	}
	if f.min != nil && n < *f.min {
		return 0, fmt.Errorf("elicitation: field %s below minimum", f.name)
	}
	if f.max != nil && n > *f.max {
		return 0, fmt.Errorf("elicitation: field %s above maximum", f.name)
	}
	return n, nil
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

func protocolType(schemaType string, k reflect.Kind) (string, bool) {
	switch schemaType {
	case "string":
		return "string", k == reflect.String
	case "integer", "number":
		if (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64 {
			return "number", true
		}
	case "boolean":
		return "boolean", k == reflect.Bool
	}
	return "", false
}
