package validation

import (
	"context"
	"net/url"
	"time"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// IntrospectToken asks the RFC 7662 endpoint at address about token and
// returns the principal of an active token. tokenTypeHint may be empty.
func (s *Service) IntrospectToken(ctx context.Context, address, token, tokenTypeHint string) (p *protocol.Principal, err error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, tx, scope, err := s.beginOperation(ctx, OperationIntrospectToken)
	if err != nil {
		return nil, err
	}
	defer func() { s.endOperation(ctx, scope, start, err) }()

	req, err := s.prepareIntrospectionRequest(ctx, tx, addr, token, tokenTypeHint)
	if err != nil {
		return nil, err
	}
	if err := s.applyIntrospectionRequest(ctx, tx, req); err != nil {
		return nil, err
	}
	res, err := s.extractIntrospectionResponse(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	return s.handleIntrospectionResponse(ctx, tx, req, res, token, tokenTypeHint)
}

func (s *Service) prepareIntrospectionRequest(ctx context.Context, tx *pipeline.Transaction, addr *url.URL, token, hint string) (*protocol.Request, error) {
	ev := events.NewPrepareIntrospectionRequest(tx, addr, protocol.NewRequest(), token, hint)
	if err := s.dispatch(ctx, StagePrepare, ev); err != nil {
		return nil, err
	}
	if ev.Request == nil || ev.Request.Address == nil {
		return nil, ErrMissingResult
	}
	return ev.Request, nil
}

func (s *Service) applyIntrospectionRequest(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) error {
	return s.dispatch(ctx, StageApply, events.NewApplyIntrospectionRequest(tx, req))
}

func (s *Service) extractIntrospectionResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) (*protocol.Response, error) {
	ev := events.NewExtractIntrospectionResponse(tx, req)
	if err := s.dispatch(ctx, StageExtract, ev); err != nil {
		return nil, err
	}
	return responseOrEmpty(ev.Response), nil
}

func (s *Service) handleIntrospectionResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response, token, hint string) (*protocol.Principal, error) {
	ev := events.NewHandleIntrospectionResponse(tx, req, res, token, hint)
	if err := s.dispatch(ctx, StageHandle, ev); err != nil {
		return nil, err
	}
	if ev.Principal == nil {
		return nil, ErrMissingResult
	}
	return ev.Principal, nil
}
