package events

import (
	"net/url"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// PrepareConfigurationRequest builds the discovery request.
type PrepareConfigurationRequest struct {
	pipeline.BaseContext
	RequestTarget
}

func NewPrepareConfigurationRequest(tx *pipeline.Transaction, address *url.URL, req *protocol.Request) *PrepareConfigurationRequest {
	ev := &PrepareConfigurationRequest{BaseContext: pipeline.NewBaseContext(tx), RequestTarget: RequestTarget{Address: address}}
	ev.Request = req
	return ev
}

func (*PrepareConfigurationRequest) Kind() pipeline.Kind { return KindPrepareConfigurationRequest }

// ApplyConfigurationRequest finalizes the discovery request.
type ApplyConfigurationRequest struct {
	pipeline.BaseContext
}

func NewApplyConfigurationRequest(tx *pipeline.Transaction, req *protocol.Request) *ApplyConfigurationRequest {
	ev := &ApplyConfigurationRequest{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ApplyConfigurationRequest) Kind() pipeline.Kind { return KindApplyConfigurationRequest }
func (*ApplyConfigurationRequest) applyRequest()       {}

// ExtractConfigurationResponse sends the request and parses the response.
type ExtractConfigurationResponse struct {
	pipeline.BaseContext
}

func NewExtractConfigurationResponse(tx *pipeline.Transaction, req *protocol.Request) *ExtractConfigurationResponse {
	ev := &ExtractConfigurationResponse{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	return ev
}

func (*ExtractConfigurationResponse) Kind() pipeline.Kind    { return KindExtractConfigurationResponse }
func (*ExtractConfigurationResponse) CacheNamespace() string { return NamespaceConfiguration }

// HandleConfigurationResponse turns the response into a Configuration.
type HandleConfigurationResponse struct {
	pipeline.BaseContext
	Configuration *protocol.Configuration
}

func NewHandleConfigurationResponse(tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response) *HandleConfigurationResponse {
	ev := &HandleConfigurationResponse{BaseContext: pipeline.NewBaseContext(tx)}
	ev.Request = req
	ev.Response = res
	return ev
}

func (*HandleConfigurationResponse) Kind() pipeline.Kind { return KindHandleConfigurationResponse }
func (*HandleConfigurationResponse) handleResponse()     {}
