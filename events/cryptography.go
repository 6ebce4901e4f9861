package events

import (
	"net/url"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// PrepareCryptographyRequest builds the JWKS request.
type PrepareCryptographyRequest struct {
	pipeline.BaseContext
	RequestTarget
}

func NewPrepareCryptographyRequest(tx *pipeline.Transaction, address *url.URL, req *protocol.Request) *PrepareCryptographyRequest {
	ev := &PrepareCryptographyRequest{BaseContext: pipeline.NewBaseContext(tx), RequestTarget: RequestTarget{Address: address}}
	ev.Request = req
	return ev
}

func (*PrepareCryptographyRequest) Kind() pipeline.Kind { return KindPrepareCryptographyRequest }

type ApplyCryptographyRequest struct {
	pipeline.BaseContext
}

func NewApplyCryptographyRequest(tx *pipeline.Transaction, req *protocol.Request) *ApplyCryptographyRequest {
	ev := &ApplyCryptographyRequest{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ApplyCryptographyRequest) Kind() pipeline.Kind { return KindApplyCryptographyRequest }
func (*ApplyCryptographyRequest) applyRequest()       {}

type ExtractCryptographyResponse struct {
	pipeline.BaseContext
}

func NewExtractCryptographyResponse(tx *pipeline.Transaction, req *protocol.Request) *ExtractCryptographyResponse {
	ev := &ExtractCryptographyResponse{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ExtractCryptographyResponse) Kind() pipeline.Kind    { return KindExtractCryptographyResponse }
func (*ExtractCryptographyResponse) CacheNamespace() string { return NamespaceKeySets }

// HandleCryptographyResponse turns the response into a KeySet.
type HandleCryptographyResponse struct {
	pipeline.BaseContext
	KeySet *protocol.KeySet
}

func NewHandleCryptographyResponse(tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response) *HandleCryptographyResponse {
	ev := &HandleCryptographyResponse{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	ev.Response = res
	return ev
}

func (*HandleCryptographyResponse) Kind() pipeline.Kind { return KindHandleCryptographyResponse }
func (*HandleCryptographyResponse) handleResponse()     {}
