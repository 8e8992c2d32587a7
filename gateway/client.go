package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against the configured API base URL, normalises
// failures into typed errors, and mechanically walks fallback chains. It
// holds no session state; authorization headers come from the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client (primarily for testing
// and for callers that need custom transports).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient initialises a gateway Client for the given base URL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do executes a single descriptor and returns the raw response body. A
// non-2xx response yields *HTTPError; obtaining no response at all yields
// *NetworkError. Do never retries and never falls back on its own.
func (c *Client) Do(ctx context.Context, desc Descriptor) (json.RawMessage, error) {
	requestURL, err := c.buildURL(desc)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] buildURL")
	}

	var bodyReader io.Reader
	if desc.Body != nil {
		encoded, err := json.Marshal(desc.Body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Do] marshal body")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, requestURL, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] new request")
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("request_id", requestID).Str("method", desc.Method).Str("url", requestURL).Err(err).Msg("transport failure")
		return nil, &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	log.Debug().Str("request_id", requestID).Str("method", desc.Method).Str("url", requestURL).Int("status", resp.StatusCode).Msg("api request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newHTTPError(resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// DoChain walks an ordered fallback chain. It advances to the next
// descriptor only when the current one failed with a status in the chain's
// qualifying set; any other failure, or exhaustion of the chain, is
// returned to the caller untouched.
func (c *Client) DoChain(ctx context.Context, chain Chain) (json.RawMessage, error) {
	if len(chain.Descriptors) == 0 {
		return nil, errors.New("[Client.DoChain] chain has no descriptors")
	}
	for i, desc := range chain.Descriptors {
		body, err := c.Do(ctx, desc)
		if err == nil {
			return body, nil
		}
		var httpErr *HTTPError
		last := i == len(chain.Descriptors)-1
		if errors.As(err, &httpErr) && chain.qualifies(httpErr.Status) && !last {
			log.Debug().Int("status", httpErr.Status).Str("path", desc.Path).Msg("falling back to next endpoint")
			continue
		}
		return nil, err
	}
	return nil, errors.New("[Client.DoChain] unreachable")
}

func (c *Client) buildURL(desc Descriptor) (string, error) {
	path := desc.Path
	var embedded string
	if before, after, found := strings.Cut(path, "?"); found {
		path = before
		embedded = CleanQuery(after)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", c.baseURL+path)
	}

	values := sanitizeQuery(desc.Query)
	if embedded != "" {
		extra, err := url.ParseQuery(embedded)
		if err != nil {
			return "", errors.Wrapf(err, "parse query %q", embedded)
		}
		for k, vs := range extra {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
