/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package submitresult

import (
	"reflect"
	"strings"
)

// Response types opt into custom tool wording with a struct tag on any
// field (conventionally a blank one):
//
//	_ struct{} `submitresult:"name=submit_answer,payload=answer"`
const tagKey = "submitresult"

// OptionsForResponse builds Options from the submitresult tag on T, if
// present. Callers may adjust the returned struct before passing it to
// ClaudeTool or GoogleTool; unset fields get defaults there.
func OptionsForResponse[T any]() Options[T] {
	var opts Options[T]

	t := reflect.TypeFor[T]()
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return opts
	}

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get(tagKey)
		if tag == "" {
			continue
		}
		applyTag(tag, &opts)
		break
	}
	return opts
}

// applyTag parses a comma-separated key=value tag into opts. Unknown
// keys are ignored so tags can grow without breaking older binaries.
func applyTag[T any](tag string, opts *Options[T]) {
	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, _ := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "name", "tool", "toolname":
			opts.ToolName = value
		case "description", "tooldescription":
			opts.Description = value
		case "success", "successmessage":
			opts.SuccessMessage = value
		case "payload", "payloadfield", "payloadfieldname":
			opts.PayloadFieldName = value
		case "payloaddescription", "payload_desc":
			opts.PayloadDescription = value
		}
	}
}
