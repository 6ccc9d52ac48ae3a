// Package remote talks to the faculty API over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

const tracerName = "github.com/krisalay/faculty-cache/remote"

// StatusError is a non-2xx answer other than 404 on a fetch.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Code, http.StatusText(e.Code), e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets a bearer token source. An empty token sends no header.
func WithToken(token func() string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

/*
Client is the faculty API.

  GET {base}/faculty/{identity}                  whole document
  PUT {base}/faculty/{identity}/sections/{name}  one section

It implements types.Fetcher and types.Persister.
*/
type Client struct {
	base   string
	http   *http.Client
	token  func() string
	tracer trace.Tracer
	logger *zap.Logger
}

var (
	_ types.Fetcher   = (*Client)(nil)
	_ types.Persister = (*Client)(nil)
)

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		tracer: otel.Tracer(tracerName),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch loads identity's whole document. 404 is types.ErrNotFound.
func (c *Client) Fetch(ctx context.Context, identity string) (types.Document, error) {
	ctx, span := c.tracer.Start(ctx, "faculty.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("faculty.identity", identity)),
	)
	defer span.End()

	endpoint := c.base + "/faculty/" + url.PathEscape(identity)
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, spanError(span, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(codes.Error, "not found")
		return nil, fmt.Errorf("GET %s: %w", endpoint, types.ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return nil, spanError(span, statusError(http.MethodGet, endpoint, resp))
	}

	var doc types.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, spanError(span, fmt.Errorf("decode faculty document: %w", err))
	}
	if doc == nil {
		doc = types.Document{}
	}
	span.SetAttributes(attribute.Int("faculty.sections", len(doc)))
	return doc, nil
}

// PersistSection replaces one section remotely.
func (c *Client) PersistSection(ctx context.Context, identity, name string, sec types.Section) error {
	ctx, span := c.tracer.Start(ctx, "faculty.PersistSection",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("faculty.identity", identity),
			attribute.String("faculty.section", name),
		),
	)
	defer span.End()

	body, err := json.Marshal(sec)
	if err != nil {
		return spanError(span, fmt.Errorf("encode section %q: %w", name, err))
	}
	endpoint := c.base + "/faculty/" + url.PathEscape(identity) + "/sections/" + url.PathEscape(name)
	resp, err := c.do(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return spanError(span, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode/100 != 2 {
		return spanError(span, statusError(http.MethodPut, endpoint, resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	c.logger.Debug("faculty api call",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}

func statusError(method, endpoint string, resp *http.Response) *StatusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Method: method,
		URL:    endpoint,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(b)),
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
