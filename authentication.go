package validation

import (
	"context"
	"time"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/internal/jwtauth"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// ValidateAccessToken validates token locally against the configured issuer,
// audiences and signing keys. Opaque tokens are introspected when an
// introspection fallback is configured.
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (p *protocol.Principal, err error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, tx, scope, err := s.beginOperation(ctx, OperationValidateAccessToken)
	if err != nil {
		return nil, err
	}
	defer func() { s.endOperation(ctx, scope, start, err) }()

	return s.processAuthentication(ctx, tx, token)
}

func (s *Service) processAuthentication(ctx context.Context, tx *pipeline.Transaction, token string) (*protocol.Principal, error) {
	ev := events.NewProcessAuthentication(tx, token, protocol.TokenTypeAccessToken)
	if err := s.dispatch(ctx, StageAuthenticate, ev); err != nil {
		return nil, err
	}
	if ev.Principal == nil {
		return nil, ErrMissingResult
	}
	return ev.Principal, nil
}

// NewJWTValidator returns the TokenValidator used by default, for callers
// that want to wrap it.
func NewJWTValidator() pipeline.TokenValidator {
	return jwtauth.New()
}
