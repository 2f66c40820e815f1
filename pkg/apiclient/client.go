// Package apiclient is the shared JSON client for the clinic REST API.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwalitptl/clinic-scheduler/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

const maxErrorBody = 64 << 10

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("clinic API temporarily unavailable")

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	MaxFailures int
	OpenTimeout time.Duration
}

type Client struct {
	base    *url.URL
	http    *http.Client
	agent   string
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     *logger.Logger
}

// RequestOption decorates an outgoing request.
type RequestOption func(*http.Request)

// WithBearer forwards the caller's access token.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHeader sets an arbitrary header when value is non-empty.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		if value != "" {
			r.Header.Set(key, value)
		}
	}
}

func New(cfg Config, m *metrics.Metrics, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		agent:   cfg.UserAgent,
		metrics: m,
		log:     log,
	}
	c.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "clinic-api",
		MaxFailures: cfg.MaxFailures,
		Timeout:     cfg.OpenTimeout,
		IsFailure:   isServerFailure,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
		},
	})
	return c, nil
}

// Get issues a GET with query parameters; empty values are dropped.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out, opts...)
}

// RawResponse receives the response body untouched, envelope included.
type RawResponse []byte

// Do sends the request and decodes the response into out. Responses wrapped
// in {"data": ...} are unwrapped first. Passing a *[]byte as out yields the
// unwrapped raw JSON; a *RawResponse gets the body as sent.
func (c *Client) Do(ctx context.Context, method, path string, query map[string]string, body, out interface{}, opts ...RequestOption) error {
	var payload []byte
	err := c.breaker.Execute(func() error {
		var err error
		payload, err = c.send(ctx, method, path, query, body, opts)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ErrUnavailable
	}
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	if full, ok := out.(*RawResponse); ok {
		*full = payload
		return nil
	}
	data := Unwrap(payload)
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query map[string]string, body interface{}, opts []RequestOption) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(method, "network_error", time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(method, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    ExtractMessage(resp.StatusCode, raw),
			Method:     method,
			Path:       path,
		}
		c.log.Debug("clinic API error", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}
	return payload, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query map[string]string, body interface{}) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			if v != "" {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	return req, nil
}

// Unwrap returns the value of a top-level "data" key, or payload unchanged.
func Unwrap(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if data, ok := envelope["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return trimmed
}
