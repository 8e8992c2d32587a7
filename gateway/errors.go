package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// HTTPError is returned when the API answered with a non-2xx status. The
// response body, when present, is kept both decoded (Payload) and raw so
// that error normalisation can respect the field order of the original
// document.
type HTTPError struct {
	Status  int
	Payload any // decoded JSON body, raw string, or nil
	raw     json.RawMessage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api responded with status %d: %s", e.Status, e.Message("request failed"))
}

// Message reduces the error payload to a single human-readable string,
// falling back to the supplied text when the payload carries nothing usable.
func (e *HTTPError) Message(fallback string) string {
	if len(e.raw) > 0 {
		return Normalize(e.raw, fallback)
	}
	return Normalize(e.Payload, fallback)
}

func newHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{Status: status}
	if len(body) == 0 {
		return httpErr
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		httpErr.Payload = string(body)
		return httpErr
	}
	httpErr.Payload = decoded
	httpErr.raw = json.RawMessage(body)
	return httpErr
}

// NetworkError is returned when no response was obtained at all. It is
// never retried and never advances a fallback chain.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NormalizedError carries a single human-readable message while keeping the
// underlying gateway error reachable through errors.As / errors.Cause.
type NormalizedError struct {
	Msg   string
	Cause error
}

func (e *NormalizedError) Error() string {
	return e.Msg
}

func (e *NormalizedError) Unwrap() error {
	return e.Cause
}

// Normalized wraps err with the single human-readable message derived from
// it. A nil err returns nil.
func Normalized(err error, fallback string) error {
	if err == nil {
		return nil
	}
	return &NormalizedError{Msg: Message(err, fallback), Cause: err}
}

// Message reduces any gateway error to one human-readable string. HTTP
// errors go through payload normalisation; everything else (network
// failures included) is surfaced verbatim.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message(fallback)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Error()
	}
	return err.Error()
}
