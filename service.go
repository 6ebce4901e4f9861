package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/handlers"
	"github.com/ggoodman/oidc-validation-go/internal/jwtauth"
	"github.com/ggoodman/oidc-validation-go/internal/logctx"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/storage"
	"github.com/ggoodman/oidc-validation-go/transport/httptransport"
)

// Operation names, as reported in Error.Operation and in logs.
const (
	OperationFetchConfiguration  = "FetchConfiguration"
	OperationFetchSigningKeys    = "FetchSigningKeys"
	OperationIntrospectToken     = "IntrospectToken"
	OperationValidateAccessToken = "ValidateAccessToken"
)

// Stage names, as reported in Error.Stage and in logs.
const (
	StagePrepare      = "prepare"
	StageApply        = "apply"
	StageExtract      = "extract"
	StageHandle       = "handle"
	StageAuthenticate = "authenticate"
)

// DefaultLeeway is the clock skew tolerated when none is configured.
const DefaultLeeway = 60 * time.Second

// Service runs the validation operations. It is safe for concurrent use;
// operations share only the sealed registry and the configured collaborators.
type Service struct {
	opts       *pipeline.Options
	dispatcher *pipeline.Dispatcher
	factory    pipeline.Factory
	log        *slog.Logger
	closers    []func() error
}

var _ pipeline.Client = (*Service)(nil)

// NewService builds a Service. Unless overridden, it uses the built-in
// handlers, an HTTP transport and the JWT validator.
//
// No document cache is configured by default: every ValidateAccessToken that
// discovers keys fetches the discovery document and the key set again. Pass
// WithCache (for example a storage/memory backend) to keep them between
// operations, or use NewServiceFromConfig, which caches for an hour.
func NewService(opts ...Option) (*Service, error) {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return newService(cfg)
}

func newService(cfg *serviceConfig) (*Service, error) {
	o := cfg.opts
	if o.Issuer != "" && !isAbsolute(o.Issuer) {
		return nil, invalidInput("issuer %q is not an absolute URL", o.Issuer)
	}
	if o.MetadataAddress != "" && !isAbsolute(o.MetadataAddress) {
		return nil, invalidInput("metadata address %q is not an absolute URL", o.MetadataAddress)
	}
	if o.IntrospectionURL != "" && !isAbsolute(o.IntrospectionURL) {
		return nil, invalidInput("introspection address %q is not an absolute URL", o.IntrospectionURL)
	}

	if len(o.AllowedAlgs) == 0 {
		o.AllowedAlgs = append([]string(nil), jwtauth.DefaultAllowedAlgs...)
	}
	if o.Leeway == 0 {
		o.Leeway = DefaultLeeway
	}
	if o.Transport == nil {
		o.Transport = httptransport.New()
	}
	if o.TokenValidator == nil {
		o.TokenValidator = jwtauth.New()
	}
	o.Logger = logctx.Wrap(o.Logger)

	registry := cfg.registry
	if registry == nil {
		var err error
		if registry, err = handlers.NewDefaultRegistry(); err != nil {
			return nil, err
		}
	}
	factory := cfg.factory
	if factory == nil {
		factory = pipeline.DefaultFactory
	}

	s := &Service{
		opts:       &o,
		dispatcher: pipeline.NewDispatcher(registry),
		factory:    factory,
		log:        o.Logger,
		closers:    cfg.closers,
	}
	o.Client = s
	return s, nil
}

// Registry returns the registry the service dispatches from.
func (s *Service) Registry() *pipeline.Registry { return s.dispatcher.Registry() }

// Close releases resources created by NewServiceFromConfig, such as cache
// connections. Collaborators passed in with options are left alone.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Invalidate drops every cached configuration document and key set, so the
// next operation fetches them again. Call it after the authorization server
// rotates its keys. It is a no-op when no cache is configured.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.opts.Cache == nil {
		return nil
	}
	var errs []error
	for _, ns := range []string{events.NamespaceConfiguration, events.NamespaceKeySets} {
		if err := s.opts.Cache.Delete(ctx, storage.WithNamespace(ns)); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", ns, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.WarnContext(ctx, "cache.invalidate.failed", slog.String("err", err.Error()))
		return err
	}
	s.log.DebugContext(ctx, "cache.invalidated")
	return nil
}

// beginOperation creates the transaction and scope of an operation and
// returns a context carrying the transaction data for logging.
func (s *Service) beginOperation(ctx context.Context, operation string) (context.Context, *pipeline.Transaction, *pipeline.Scope, error) {
	tx, scope, err := s.factory.CreateTransaction(ctx, operation, s.opts)
	if err != nil {
		return ctx, nil, nil, errors.Join(ErrInternal, err)
	}
	switch {
	case tx == nil:
		err = fmt.Errorf("%w: factory returned no transaction", pipeline.ErrInvalidTransaction)
	case tx.Scope() == nil:
		err = fmt.Errorf("%w: transaction has no scope", pipeline.ErrInvalidTransaction)
	case scope != nil && scope != tx.Scope():
		err = fmt.Errorf("%w: factory scope is not bound to the transaction", pipeline.ErrInvalidTransaction)
	}
	if err != nil {
		if scope != nil {
			_ = scope.Release()
		}
		s.log.ErrorContext(ctx, "operation.begin.failed", slog.String("op", operation), slog.String("err", err.Error()))
		return ctx, nil, nil, errors.Join(ErrInternal, err)
	}
	scope = tx.Scope()
	ctx = logctx.WithTransactionData(ctx, &logctx.TransactionData{ID: tx.ID, Operation: operation})
	s.log.DebugContext(ctx, "operation.start")
	return ctx, tx, scope, nil
}

// endOperation logs the outcome and releases the scope. It runs exactly once
// per successful beginOperation.
func (s *Service) endOperation(ctx context.Context, scope *pipeline.Scope, start time.Time, err error) {
	dur := slog.Duration("dur", time.Since(start))
	var rej *Error
	switch {
	case err == nil:
		s.log.DebugContext(ctx, "operation.done", dur)
	case errors.As(err, &rej):
		s.log.InfoContext(ctx, "operation.rejected",
			slog.String("stage", rej.Stage),
			slog.String("error", rej.Code),
			slog.String("error_description", rej.Description),
			dur,
		)
	default:
		s.log.ErrorContext(ctx, "operation.failed", slog.String("err", err.Error()), dur)
	}

	if relErr := scope.Release(); relErr != nil {
		s.log.WarnContext(ctx, "scope.release.failed", slog.String("err", relErr.Error()))
	}
}

// dispatch runs one stage and maps its outcome: a fault becomes an error
// wrapping ErrInternal, a rejection becomes a *Error.
func (s *Service) dispatch(ctx context.Context, stage string, ev pipeline.Event) error {
	ctx = logctx.WithStage(ctx, stage)
	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		return errors.Join(ErrInternal, err)
	}
	bc := ev.Context()
	if bc.IsRejected() {
		return &Error{
			Code:        bc.ErrorCode(),
			Description: bc.ErrorDescription(),
			URI:         bc.ErrorURI(),
			Operation:   bc.Transaction.Operation,
			Stage:       stage,
		}
	}
	return nil
}

func isAbsolute(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

// parseAddress validates a caller supplied endpoint address.
func parseAddress(address string) (*url.URL, error) {
	if strings.TrimSpace(address) == "" {
		return nil, invalidInput("address is empty")
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, invalidInput("address %q: %v", address, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, invalidInput("address %q is not an absolute URL", address)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalidInput("address %q has unsupported scheme %q", address, u.Scheme)
	}
	return u, nil
}

func checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return invalidInput("token is empty")
	}
	return nil
}
