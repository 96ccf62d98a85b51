/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package submitresult

import (
	"encoding/json"
	"fmt"
	"reflect"

	"chainguard.dev/repolens/agents/schema"
	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// Options controls how the submit_result tool is named and described.
// The zero value is usable; setDefaults fills in the standard wording.
type Options[Response any] struct {
	ToolName           string
	Description        string
	SuccessMessage     string
	PayloadFieldName   string
	PayloadDescription string
	Generator          *schema.Generator
}

func (o *Options[Response]) setDefaults() {
	def := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	def(&o.ToolName, "submit_result")
	def(&o.Description, "Submit the final result and complete the analysis.")
	def(&o.SuccessMessage, "Result submitted successfully.")
	def(&o.PayloadFieldName, "result")
	def(&o.PayloadDescription, "Structured result payload.")
	if o.Generator == nil {
		o.Generator = schema.NewGenerator()
	}
}

func (o *Options[Response]) validate() error {
	if o.PayloadFieldName == "" {
		return fmt.Errorf("payload field name is required")
	}
	return nil
}

// schemaForResponse reflects a schema for Response. Reflection needs an
// addressable value, and Response is frequently a pointer type already,
// so unwrap one level of pointer before allocating.
func (o *Options[Response]) schemaForResponse() *jsonschema.Schema {
	typ := reflect.TypeFor[Response]()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return o.Generator.Reflect(reflect.New(typ).Interface())
}

// schemaToMap round-trips a schema through JSON into the loose map shape
// the Anthropic SDK wants for tool input schemas.
func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// schemaToGenai converts a jsonschema.Schema into the genai SDK's native
// schema type, recursing through properties, items, and anyOf branches.
func schemaToGenai(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        mapSchemaType(s.Type),
		Description: s.Description,
		Title:       s.Title,
		Format:      s.Format,
		Pattern:     s.Pattern,
		Default:     s.Default,
	}

	for _, v := range s.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(v))
	}
	out.Required = append(out.Required, s.Required...)
	if len(s.Examples) > 0 {
		out.Example = s.Examples[0]
	}

	out.MaxLength = toInt64(s.MaxLength)
	out.MinLength = toInt64(s.MinLength)
	out.MaxItems = toInt64(s.MaxItems)
	out.MinItems = toInt64(s.MinItems)
	out.MaxProperties = toInt64(s.MaxProperties)
	out.MinProperties = toInt64(s.MinProperties)
	out.Maximum = toFloat64(s.Maximum)
	out.Minimum = toFloat64(s.Minimum)

	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = schemaToGenai(pair.Value)
			out.PropertyOrdering = append(out.PropertyOrdering, pair.Key)
		}
	}

	out.Items = schemaToGenai(s.Items)

	for _, child := range s.AnyOf {
		out.AnyOf = append(out.AnyOf, schemaToGenai(child))
	}

	return out
}

// decodePayload converts the raw payload arguments into a Response value
// via a JSON round trip, handling pointer and value Response types.
func decodePayload[Response any](raw map[string]any) (Response, error) {
	var zero Response
	data, err := json.Marshal(raw)
	if err != nil {
		return zero, fmt.Errorf("marshal payload: %w", err)
	}

	typ := reflect.TypeFor[Response]()
	if typ.Kind() == reflect.Pointer {
		dest := reflect.New(typ.Elem()).Interface()
		if err := json.Unmarshal(data, dest); err != nil {
			return zero, fmt.Errorf("unmarshal payload: %w", err)
		}
		return dest.(Response), nil
	}

	dest := reflect.New(typ)
	if err := json.Unmarshal(data, dest.Interface()); err != nil {
		return zero, fmt.Errorf("unmarshal payload: %w", err)
	}
	return dest.Elem().Interface().(Response), nil
}

func toInt64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func toFloat64(n json.Number) *float64 {
	if len(n) == 0 {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	return &v
}

func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	case "null":
		return genai.TypeNULL
	default:
		return ""
	}
}
