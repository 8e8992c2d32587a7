package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Normalize reduces an arbitrarily-shaped error payload to one
// human-readable string. Precedence:
//  1. the payload is already a string: returned as-is
//  2. the payload has a "detail" field: its message
//  3. the payload is an object: the message of its first declared field
//     (first element when the value is a non-empty list)
//  4. anything else: the caller-supplied fallback
//
// Normalize is total and deterministic: it never panics, and raw JSON
// payloads are scanned in document order so the "first field" does not
// depend on map iteration.
func Normalize(payload any, fallback string) string {
	switch p := payload.(type) {
	case nil:
		return fallback
	case string:
		return p
	case json.RawMessage:
		return normalizeRaw(p, fallback)
	case []byte:
		return normalizeRaw(p, fallback)
	case map[string]any:
		return normalizeMap(p, fallback)
	case error:
		return p.Error()
	default:
		return fallback
	}
}

func normalizeRaw(raw []byte, fallback string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallback
	}

	// A bare JSON string is returned as-is.
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fallback
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fallback
	}

	var first string
	haveFirst := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := keyTok.(string)
		if !ok {
			break
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			break
		}
		msg, usable := fieldMessage(value)
		if key == "detail" && usable {
			return msg
		}
		if !haveFirst && usable {
			first = msg
			haveFirst = true
		}
	}
	if haveFirst {
		return first
	}
	return fallback
}

// normalizeMap handles payloads that were decoded before reaching the
// normaliser. Declared order is gone at that point, so after "detail" the
// keys are ranked alphabetically to stay deterministic.
func normalizeMap(payload map[string]any, fallback string) string {
	if detail, ok := payload["detail"]; ok {
		if msg, usable := fieldMessage(detail); usable {
			return msg
		}
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg, usable := fieldMessage(payload[k]); usable {
			return msg
		}
	}
	return fallback
}

// fieldMessage extracts a message from a single field value: the first
// element of a non-empty list, or the value itself when it is a string.
func fieldMessage(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		if s, ok := v[0].(string); ok {
			return s, true
		}
		return fmt.Sprint(v[0]), true
	default:
		return "", false
	}
}
