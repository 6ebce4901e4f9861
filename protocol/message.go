// Package protocol holds the OAuth 2.0 / OpenID Connect message types that
// flow through the validation pipeline: requests, responses, discovered
// configuration, key sets and the principals produced from tokens.
package protocol

import (
	"net/http"
	"net/url"
)

// Parameter names used by the discovery, introspection and error payloads.
const (
	ParamToken            = "token"
	ParamTokenTypeHint    = "token_type_hint"
	ParamClientID         = "client_id"
	ParamClientSecret     = "client_secret"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
	ParamActive           = "active"
	ParamIssuer           = "iss"
	ParamSubject          = "sub"
	ParamScope            = "scope"
	ParamTokenType        = "token_type"
	ParamTokenUsage       = "token_usage"
	ParamKeys             = "keys"
)

// Error codes defined by RFC 6749 and RFC 6750 that the pipeline emits.
const (
	ErrorInvalidRequest    = "invalid_request"
	ErrorInvalidToken      = "invalid_token"
	ErrorInsufficientScope = "insufficient_scope"
	ErrorServerError       = "server_error"
)

// Token type hints (RFC 7009 / RFC 7662).
const (
	TokenTypeAccessToken  = "access_token"
	TokenTypeRefreshToken = "refresh_token"
	TokenTypeIDToken      = "id_token"
)

// Request is an outgoing protocol message.
type Request struct {
	// Method is the HTTP method the transport should use. Empty means GET.
	Method string
	// Address is the absolute endpoint address.
	Address *url.URL
	// Parameters are sent as the query string (GET) or form body (POST).
	Parameters Parameters
}

// NewRequest returns an empty GET request.
func NewRequest() *Request { return &Request{Method: http.MethodGet} }

// Response is a parsed protocol message received from a remote endpoint.
type Response struct {
	StatusCode int
	Parameters Parameters
	// Raw is the body the parameters were parsed from.
	Raw []byte
}

// RawResponse is what a transport hands back before any parsing.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status is 2xx.
func (r *RawResponse) IsSuccess() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }
