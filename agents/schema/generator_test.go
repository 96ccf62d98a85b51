/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"testing"

	"chainguard.dev/repolens/agents/schema"
)

func TestReflect(t *testing.T) {
	type nested struct {
		Value string `json:"value" jsonschema:"description=Nested value"`
	}
	type sample struct {
		Name   string  `json:"name" jsonschema:"description=Name,required"`
		Count  int     `json:"count,omitempty"`
		Nested *nested `json:"nested,omitempty"`
	}

	s := schema.Reflect(&sample{})
	if s == nil {
		t.Fatal("expected schema")
	}

	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Fatalf("unexpected required: %#v", s.Required)
	}

	props := s.Properties
	if props == nil {
		t.Fatal("expected properties")
	}

	name, ok := props.Get("name")
	if !ok {
		t.Fatal("missing name property")
	}
	if name.Description != "Name" {
		t.Fatalf("unexpected description: %q", name.Description)
	}

	nestedSchema, ok := props.Get("nested")
	if !ok {
		t.Fatal("missing nested property")
	}
	nestedProps := nestedSchema.Properties
	if nestedProps == nil {
		t.Fatal("expected nested properties")
	}
	valueSchema, ok := nestedProps.Get("value")
	if !ok {
		t.Fatal("missing nested value property")
	}
	if valueSchema.Description != "Nested value" {
		t.Fatalf("unexpected nested description: %q", valueSchema.Description)
	}
}

func TestReflectAnswerType(t *testing.T) {
	type answer struct {
		Answer  string   `json:"answer" jsonschema:"description=The answer to the user's question"`
		Sources []string `json:"sources" jsonschema:"description=Commit SHAs and PR numbers used as evidence"`
	}

	s := schema.ReflectType[answer]()
	if s == nil {
		t.Fatal("expected schema")
	}
	if s.Type != "object" {
		t.Errorf("expected object type, got %s", s.Type)
	}

	answerProp, ok := s.Properties.Get("answer")
	if !ok {
		t.Fatal("missing answer property")
	}
	if answerProp.Type != "string" {
		t.Errorf("answer type = %q, want string", answerProp.Type)
	}

	sourcesProp, ok := s.Properties.Get("sources")
	if !ok {
		t.Fatal("missing sources property")
	}
	if sourcesProp.Type != "array" {
		t.Errorf("sources type = %q, want array", sourcesProp.Type)
	}
	if sourcesProp.Items == nil || sourcesProp.Items.Type != "string" {
		t.Error("sources should contain strings")
	}
}

func TestReflectPointerType(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
	}

	s := schema.ReflectType[*payload]()
	if s == nil {
		t.Fatal("expected schema for pointer type")
	}
	if _, ok := s.Properties.Get("summary"); !ok {
		t.Error("missing summary property")
	}
}
