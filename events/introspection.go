package events

import (
	"net/url"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// PrepareIntrospectionRequest builds the RFC 7662 introspection request.
type PrepareIntrospectionRequest struct {
	pipeline.BaseContext
	RequestTarget
	TokenDetails
}

func NewPrepareIntrospectionRequest(tx *pipeline.Transaction, address *url.URL, req *protocol.Request, token, hint string) *PrepareIntrospectionRequest {
	ev := &PrepareIntrospectionRequest{
		BaseContext:   pipeline.NewBaseContext(tx),
		RequestTarget: RequestTarget{Address: address},
		TokenDetails:  TokenDetails{Token: token, TokenTypeHint: hint},
	}
	ev.Request = req
	return ev
}

func (*PrepareIntrospectionRequest) Kind() pipeline.Kind { return KindPrepareIntrospectionRequest }

type ApplyIntrospectionRequest struct {
	pipeline.BaseContext
}

func NewApplyIntrospectionRequest(tx *pipeline.Transaction, req *protocol.Request) *ApplyIntrospectionRequest {
	ev := &ApplyIntrospectionRequest{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ApplyIntrospectionRequest) Kind() pipeline.Kind { return KindApplyIntrospectionRequest }
func (*ApplyIntrospectionRequest) applyRequest()       {}

type ExtractIntrospectionResponse struct {
	pipeline.BaseContext
}

func NewExtractIntrospectionResponse(tx *pipeline.Transaction, req *protocol.Request) *ExtractIntrospectionResponse {
	ev := &ExtractIntrospectionResponse{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ExtractIntrospectionResponse) Kind() pipeline.Kind { return KindExtractIntrospectionResponse }

// CacheNamespace is empty: introspection answers are token specific and may
// change at any time.
func (*ExtractIntrospectionResponse) CacheNamespace() string { return "" }

// HandleIntrospectionResponse turns the response into a Principal.
type HandleIntrospectionResponse struct {
	pipeline.BaseContext
	TokenDetails
	Principal *protocol.Principal
}

func NewHandleIntrospectionResponse(tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response, token, hint string) *HandleIntrospectionResponse {
	ev := &HandleIntrospectionResponse{
		BaseContext:  pipeline.NewBaseContext(tx),
		TokenDetails: TokenDetails{Token: token, TokenTypeHint: hint},
	}
	ev.Request = req
	ev.Response = res
	return ev
}

func (*HandleIntrospectionResponse) Kind() pipeline.Kind { return KindHandleIntrospectionResponse }
func (*HandleIntrospectionResponse) handleResponse()     {}
