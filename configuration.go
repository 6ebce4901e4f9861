package validation

import (
	"context"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// FetchConfiguration retrieves the discovery document at address.
func (s *Service) FetchConfiguration(ctx context.Context, address string) (cfg *protocol.Configuration, err error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, tx, scope, err := s.beginOperation(ctx, OperationFetchConfiguration)
	if err != nil {
		return nil, err
	}
	defer func() { s.endOperation(ctx, scope, start, err) }()

	req, err := s.prepareConfigurationRequest(ctx, tx, addr)
	if err != nil {
		return nil, err
	}
	if err := s.applyConfigurationRequest(ctx, tx, req); err != nil {
		return nil, err
	}
	res, err := s.extractConfigurationResponse(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	return s.handleConfigurationResponse(ctx, tx, req, res)
}

func (s *Service) prepareConfigurationRequest(ctx context.Context, tx *pipeline.Transaction, addr *url.URL) (*protocol.Request, error) {
	ev := events.NewPrepareConfigurationRequest(tx, addr, protocol.NewRequest())
	if err := s.dispatch(ctx, StagePrepare, ev); err != nil {
		return nil, err
	}
	if ev.Request == nil || ev.Request.Address == nil {
		return nil, ErrMissingResult
	}
	return ev.Request, nil
}

func (s *Service) applyConfigurationRequest(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) error {
	return s.dispatch(ctx, StageApply, events.NewApplyConfigurationRequest(tx, req))
}

func (s *Service) extractConfigurationResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) (*protocol.Response, error) {
	ev := events.NewExtractConfigurationResponse(tx, req)
	if err := s.dispatch(ctx, StageExtract, ev); err != nil {
		return nil, err
	}
	return responseOrEmpty(ev.Response), nil
}

func (s *Service) handleConfigurationResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response) (*protocol.Configuration, error) {
	ev := events.NewHandleConfigurationResponse(tx, req, res)
	if err := s.dispatch(ctx, StageHandle, ev); err != nil {
		return nil, err
	}
	if ev.Configuration == nil {
		return nil, ErrMissingResult
	}
	return ev.Configuration, nil
}

// Discover fetches the discovery document of the configured issuer.
func (s *Service) Discover(ctx context.Context) (*protocol.Configuration, error) {
	addr := s.opts.DiscoveryAddress()
	if addr == "" {
		return nil, invalidInput("no issuer or metadata address is configured")
	}
	return s.FetchConfiguration(ctx, addr)
}

// Provider discovers the configured issuer and returns a go-oidc provider
// built from the result, for callers that also verify ID tokens.
func (s *Service) Provider(ctx context.Context) (*oidc.Provider, error) {
	cfg, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.NewProvider(ctx), nil
}

// responseOrEmpty returns res, or an empty response when Extract produced
// none. The Handle stage rejects empty responses.
func responseOrEmpty(res *protocol.Response) *protocol.Response {
	if res == nil {
		return &protocol.Response{}
	}
	return res
}
