/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// stringLiteral only accepts untyped string constants, which keeps templates
// and literal bindings under developer control.
type stringLiteral string

// Prompt is a template with named placeholders and their bound values.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses a template literal and registers its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	tmpl, err := walkTemplate(string(template), func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = &unboundBinding{name: name}
		}
		// Parsing pass: leave the placeholder in place.
		return fmt.Sprintf("{{%s}}", name), nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: tmpl, bindings: bindings}, nil
}

// Placeholders returns the set of placeholder names found in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, unbound := existing.(*unboundBinding); !unbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// BindStringLiteral binds a developer-controlled literal string.
func (p *Prompt) BindStringLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, &literalBinding{val: string(value)})
}

// BindXML binds data by marshaling it as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, &encoderBinding{data: data, encode: marshalXML})
}

// BindJSON binds data by marshaling it as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, &encoderBinding{data: data, encode: marshalJSON})
}

// BindYAML binds data by marshaling it as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, &encoderBinding{data: data, encode: marshalYAML})
}

// Build substitutes every placeholder and returns the final prompt text.
// It fails if any placeholder is unbound or a bound value fails to encode.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		val, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = val
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		if val, ok := values[name]; ok {
			return val, nil
		}
		return "", fmt.Errorf("internal error: no value for binding %q", name)
	})
}

// binding is a value that will be substituted into the template.
type binding interface {
	value() (string, error)
}

type unboundBinding struct{ name string }

func (u *unboundBinding) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type literalBinding struct{ val string }

func (l *literalBinding) value() (string, error) { return l.val, nil }

type encoderBinding struct {
	data   any
	encode func(any) (string, error)
}

func (e *encoderBinding) value() (string, error) { return e.encode(e.data) }

func marshalXML(data any) (string, error) {
	b, err := xml.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return string(b), nil
}

func marshalJSON(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}

func marshalYAML(data any) (string, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(b), nil
}

// resolveFunc supplies the replacement text for a placeholder name.
type resolveFunc func(name string) (string, error)

// walkTemplate tokenizes the template in a single pass, calling resolve for
// each {{name}} placeholder. Replacement text is never re-scanned.
func walkTemplate(template string, resolve resolveFunc) (string, error) {
	var out strings.Builder
	for len(template) > 0 {
		start := strings.Index(template, "{{")
		if start == -1 {
			out.WriteString(template)
			break
		}
		out.WriteString(template[:start])

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			return "", errors.New("unclosed binding: missing '}}'")
		}
		end += start + 2

		name := strings.TrimSpace(template[start+2 : end-2])
		if !isValidIdentifier(name) {
			return "", fmt.Errorf("invalid binding identifier %q", name)
		}
		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)
		template = template[end:]
	}
	return out.String(), nil
}

// isValidIdentifier reports whether s starts with a letter and contains only
// letters, digits, and underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
