// Package transporttest provides an in-memory pipeline.Transport for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/ggoodman/oidc-validation-go/protocol"
)

// ErrNoRoute is returned for requests with no registered responder.
var ErrNoRoute = errors.New("transporttest: no responder for address")

// Responder produces the response for a request.
type Responder func(ctx context.Context, req *protocol.Request) (*protocol.RawResponse, error)

// Transport routes requests by address (scheme, host and path). It is safe
// for concurrent use and records every request it sees.
type Transport struct {
	mu       sync.Mutex
	routes   map[string]Responder
	requests []*protocol.Request
}

// New returns an empty Transport.
func New() *Transport {
	return &Transport{routes: make(map[string]Responder)}
}

// Handle registers r for address.
func (t *Transport) Handle(address string, r Responder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[address] = r
}

// HandleJSON responds to address with status and v encoded as JSON.
func (t *Transport) HandleJSON(address string, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	t.Handle(address, func(context.Context, *protocol.Request) (*protocol.RawResponse, error) {
		return JSON(status, body), nil
	})
}

// HandleError makes requests to address fail with err.
func (t *Transport) HandleError(address string, err error) {
	t.Handle(address, func(context.Context, *protocol.Request) (*protocol.RawResponse, error) {
		return nil, err
	})
}

// Send implements pipeline.Transport.
func (t *Transport) Send(ctx context.Context, req *protocol.Request) (*protocol.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ""
	if req.Address != nil {
		u := *req.Address
		u.RawQuery = ""
		u.Fragment = ""
		key = u.String()
	}

	t.mu.Lock()
	t.requests = append(t.requests, req)
	r, ok := t.routes[key]
	t.mu.Unlock()

	if !ok {
		return nil, ErrNoRoute
	}
	return r(ctx, req)
}

// Requests returns the requests seen so far.
func (t *Transport) Requests() []*protocol.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*protocol.Request(nil), t.requests...)
}

// Calls returns how many requests were sent to address.
func (t *Transport) Calls(address string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.requests {
		if r.Address == nil {
			continue
		}
		u := *r.Address
		u.RawQuery = ""
		u.Fragment = ""
		if u.String() == address {
			n++
		}
	}
	return n
}

// JSON builds a raw response with a JSON content type.
func JSON(status int, body []byte) *protocol.RawResponse {
	return &protocol.RawResponse{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}
