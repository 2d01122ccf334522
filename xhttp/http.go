package xhttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var DefaultTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 90 * time.Second,
	}).DialContext,
	TLSClientConfig: &tls.Config{
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
	},
	ForceAttemptHTTP2:     true,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// StatusError reports a response with a status code >= 400.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// StatusCode returns the code of a *StatusError in err's chain, 0 if none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

type ClientOption func(*Client)

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// Client is a traced HTTP client.
type Client struct {
	client *http.Client
}

// NewClient creates a Client with a 10s timeout unless overridden.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client: &http.Client{
			Transport: DefaultTransport,
			Timeout:   10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, url string, header map[string]string, body []byte) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, header, body)
}

// Do sends the request inside a client span. A status >= 400 is returned as
// an error; the response body is closed in that case.
func (c *Client) Do(ctx context.Context, method string, url string, header map[string]string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	tracer := trace.TracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", method, req.URL.Path),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.host", req.URL.Host),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("execute request failed: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		err = &StatusError{Code: resp.StatusCode}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return resp, nil
}
