// Package httptransport sends pipeline requests over HTTP.
package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ggoodman/oidc-validation-go/protocol"
)

const (
	DefaultUserAgent   = "oidc-validation-go"
	DefaultMaxBodySize = 1 << 20
)

var (
	// ErrBodyTooLarge is returned when a response exceeds the configured limit.
	ErrBodyTooLarge = errors.New("httptransport: response body too large")
	// ErrNoAddress is returned for requests without an address.
	ErrNoAddress = errors.New("httptransport: request has no address")
)

// Transport implements pipeline.Transport with an *http.Client. It is safe
// for concurrent use.
type Transport struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the client used for requests. Defaults to
// http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *Transport) { t.userAgent = ua }
}

// WithTimeout bounds each request. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(t *Transport) {
		if n > 0 {
			t.maxBodySize = n
		}
	}
}

// New returns a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		client:      http.DefaultClient,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send performs req. GET requests carry their parameters in the query string,
// any other method sends them as a form body. Non-2xx statuses are returned
// as responses, not errors.
func (t *Transport) Send(ctx context.Context, req *protocol.Request) (*protocol.RawResponse, error) {
	if req == nil || req.Address == nil {
		return nil, ErrNoAddress
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := *req.Address
	var body io.Reader
	values := req.Parameters.Values()
	if method == http.MethodGet {
		q := u.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	} else if len(values) > 0 {
		body = strings.NewReader(values.Encode())
	}

	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httptransport: build request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		hreq.Header.Set("User-Agent", t.userAgent)
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("httptransport: read body: %w", err)
	}
	if int64(len(data)) > t.maxBodySize {
		return nil, ErrBodyTooLarge
	}

	return &protocol.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}
