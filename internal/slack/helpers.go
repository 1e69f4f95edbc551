package slack

import (
	"encoding/json"
	"fmt"
	"strings"

	"slackrelay/internal/types"
)

// requireValue fetches a key from a decoded payload, failing with a typed
// error when the key is absent so formatters can report exactly which field
// an event was missing.
func requireValue(payload map[string]any, key string) (any, error) {
	v, ok := payload[key]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			fmt.Sprintf("payload missing required field %q", key), nil,
			map[string]any{"field": key})
	}
	return v, nil
}

// requireMap fetches a key whose value must itself be a JSON object.
func requireMap(payload map[string]any, key string) (map[string]any, error) {
	v, err := requireValue(payload, key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			fmt.Sprintf("payload field %q is not an object", key), nil,
			map[string]any{"field": key})
	}
	return m, nil
}

// requireNumber fetches a key whose value must be numeric.
func requireNumber(payload map[string]any, key string) (float64, error) {
	v, err := requireValue(payload, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			fmt.Sprintf("payload field %q is not numeric", key), nil,
			map[string]any{"field": key})
	}
}

// valueOr fetches a key from a decoded payload, returning a fallback when the
// key is absent.
func valueOr(payload map[string]any, key string, fallback any) any {
	if v, ok := payload[key]; ok {
		return v
	}
	return fallback
}

// display renders an arbitrary decoded JSON value for a Slack field. Strings
// pass through untouched, composites re-serialize as compact JSON, and
// scalars use their natural Go rendering (notably, whole-valued floats render
// without a decimal point).
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// backtick renders a value as inline Slack code.
func backtick(v any) string {
	return "`" + display(v) + "`"
}

// lastSegment returns the text after the final occurrence of sep, or the
// whole string when sep is absent. Used to trim ARN-style prefixes.
func lastSegment(s, sep string) string {
	parts := strings.Split(s, sep)
	return parts[len(parts)-1]
}
