/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"fmt"
	"maps"
)

// Extract returns the named required parameter coerced to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, exists := args[name]
	if !exists {
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	v, ok := coerce[T](value)
	if !ok {
		return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
	}
	return v, nil
}

// ExtractOptional returns the named parameter coerced to T, or the default
// when absent. A present value of the wrong type is still an error.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists {
		return defaultValue, nil
	}
	v, ok := coerce[T](value)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
	}
	return v, nil
}

// coerce converts value to T, allowing JSON's float64 numbers to satisfy
// integer-typed parameters.
func coerce[T any](value any) (T, bool) {
	if v, ok := value.(T); ok {
		return v, true
	}

	var zero T
	floatVal, ok := value.(float64)
	if !ok {
		return zero, false
	}
	switch any(zero).(type) {
	case int:
		return any(int(floatVal)).(T), true
	case int32:
		return any(int32(floatVal)).(T), true
	case int64:
		return any(int64(floatVal)).(T), true
	}
	return zero, false
}

// Error creates an error response map.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorWithContext creates an error response with additional context fields.
func ErrorWithContext(err error, context map[string]any) map[string]any {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return response
}
