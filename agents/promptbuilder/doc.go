/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder constructs LLM prompts from developer-controlled
templates with explicitly bound values, similar in spirit to SQL prepared
statements.

Templates are literal strings containing {{name}} placeholders. User-provided
data is bound through an encoder (XML, JSON, or YAML) so that it cannot alter
the surrounding template; only BindStringLiteral accepts raw strings, and the
unexported stringLiteral type restricts it to compile-time literals.

	p := promptbuilder.MustNewPrompt(`Answer questions about {{repository}}.

	{{question}}`)
	p, err := p.BindXML("question", wrapped)
	...
	text, err := p.Build()

Prompts are immutable: every Bind* call returns a new instance, and Build
fails if any placeholder is still unbound. Substitution is single-pass, so a
bound value containing {{...}} is never re-expanded.
*/
package promptbuilder
