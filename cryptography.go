package validation

import (
	"context"
	"net/url"
	"time"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// FetchSigningKeys retrieves the JSON Web Key Set at address. Keys meant for
// encryption and keys that cannot be parsed are dropped.
func (s *Service) FetchSigningKeys(ctx context.Context, address string) (keys *protocol.KeySet, err error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, tx, scope, err := s.beginOperation(ctx, OperationFetchSigningKeys)
	if err != nil {
		return nil, err
	}
	defer func() { s.endOperation(ctx, scope, start, err) }()

	req, err := s.prepareCryptographyRequest(ctx, tx, addr)
	if err != nil {
		return nil, err
	}
	if err := s.applyCryptographyRequest(ctx, tx, req); err != nil {
		return nil, err
	}
	res, err := s.extractCryptographyResponse(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	return s.handleCryptographyResponse(ctx, tx, req, res)
}

func (s *Service) prepareCryptographyRequest(ctx context.Context, tx *pipeline.Transaction, addr *url.URL) (*protocol.Request, error) {
	ev := events.NewPrepareCryptographyRequest(tx, addr, protocol.NewRequest())
	if err := s.dispatch(ctx, StagePrepare, ev); err != nil {
		return nil, err
	}
	if ev.Request == nil || ev.Request.Address == nil {
		return nil, ErrMissingResult
	}
	return ev.Request, nil
}

func (s *Service) applyCryptographyRequest(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) error {
	return s.dispatch(ctx, StageApply, events.NewApplyCryptographyRequest(tx, req))
}

func (s *Service) extractCryptographyResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request) (*protocol.Response, error) {
	ev := events.NewExtractCryptographyResponse(tx, req)
	if err := s.dispatch(ctx, StageExtract, ev); err != nil {
		return nil, err
	}
	return responseOrEmpty(ev.Response), nil
}

func (s *Service) handleCryptographyResponse(ctx context.Context, tx *pipeline.Transaction, req *protocol.Request, res *protocol.Response) (*protocol.KeySet, error) {
	ev := events.NewHandleCryptographyResponse(tx, req, res)
	if err := s.dispatch(ctx, StageHandle, ev); err != nil {
		return nil, err
	}
	if ev.KeySet == nil {
		return nil, ErrMissingResult
	}
	return ev.KeySet, nil
}
