/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema reflects Go types into JSON schemas suitable for LLM
// tool definitions.
package schema

import "github.com/invopop/jsonschema"

// Generator produces JSON schemas with the settings tool schemas need:
// inlined definitions (providers reject $ref) and required fields driven
// by struct tags rather than pointer-ness.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator returns a Generator with the project defaults applied.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for v.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// Reflect returns the JSON schema for v using a default Generator.
func Reflect(v any) *jsonschema.Schema {
	return NewGenerator().Reflect(v)
}

// ReflectType returns the JSON schema for the type T.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}
