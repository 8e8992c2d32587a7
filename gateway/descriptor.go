package gateway

import (
	"net/url"
	"strings"
)

// Descriptor describes a single request against the API. Descriptors are
// plain values constructed per call; they carry no connection state.
type Descriptor struct {
	Method  string
	Path    string            // relative to the configured base URL, may carry its own query string
	Query   map[string]string // appended after sanitisation
	Body    any               // JSON-encoded when non-nil
	Headers map[string]string // extends or overrides the default headers
}

// Chain is an ordered list of alternate requests tried in sequence.
// Execution advances to the next descriptor only when the current one fails
// with a status listed in FallbackOn; any other failure terminates the
// chain immediately. Which statuses qualify is the caller's policy, not the
// gateway's.
type Chain struct {
	Descriptors []Descriptor
	FallbackOn  []int
}

func (c Chain) qualifies(status int) bool {
	for _, s := range c.FallbackOn {
		if s == status {
			return true
		}
	}
	return false
}

// undefinedLiteral is what callers that interpolate unset values end up
// sending. Such parameters are dropped before the URL is built.
const undefinedLiteral = "undefined"

// sanitizeQuery converts a query map to url.Values, dropping any parameter
// whose value is the literal "undefined".
func sanitizeQuery(query map[string]string) url.Values {
	values := url.Values{}
	for k, v := range query {
		if v == undefinedLiteral {
			continue
		}
		values.Set(k, v)
	}
	return values
}

// CleanQuery removes "undefined"-valued parameters from a pre-built query
// string and strips any separators left dangling by the removal. The input
// may or may not carry a leading "?"; the output never does.
func CleanQuery(raw string) string {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if _, value, found := strings.Cut(part, "="); found && value == undefinedLiteral {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}
