package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
	"github.com/ggoodman/oidc-validation-go/storage"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// isJSON accepts application/json and structured +json types such as
// application/jwk-set+json and application/token-introspection+json.
func isJSON(mt contenttype.MediaType) bool {
	if mt.Matches(jsonMediaType) {
		return true
	}
	return strings.EqualFold(mt.Type, "application") &&
		(strings.EqualFold(mt.Subtype, "json") || strings.HasSuffix(strings.ToLower(mt.Subtype), "+json"))
}

// cacheKey identifies a request in the document cache.
func cacheKey(req *protocol.Request) string {
	if req == nil || req.Address == nil {
		return ""
	}
	key := req.Address.String()
	if req.Parameters.Len() > 0 {
		key += "#" + req.Parameters.Values().Encode()
	}
	return key
}

func attachCachedResponse(ctx context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	key := cacheKey(bc.Request)
	if key == "" {
		return nil
	}
	log := bc.Logger()

	item, err := bc.Options().Cache.Get(ctx, key, storage.WithNamespace(ev.CacheNamespace()))
	if err != nil {
		log.WarnContext(ctx, "cache.get.failed", slog.String("key", key), slog.String("err", err.Error()))
		return nil
	}
	if item == nil {
		log.DebugContext(ctx, "cache.miss", slog.String("key", key))
		return nil
	}
	params, err := protocol.ParseParameters(item.Data)
	if err != nil {
		log.WarnContext(ctx, "cache.entry.invalid", slog.String("key", key), slog.String("err", err.Error()))
		return nil
	}

	bc.Response = &protocol.Response{StatusCode: http.StatusOK, Parameters: params, Raw: item.Data}
	bc.Transaction.SetProperty(PropertyCacheHit, true)
	log.DebugContext(ctx, "cache.hit", slog.String("key", key))
	bc.Skip()
	return nil
}

func sendRequest(ctx context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	tx := bc.Transaction
	opts := bc.Options()
	if opts.Transport == nil {
		return ErrNoTransport
	}
	if bc.Request == nil || bc.Request.Address == nil {
		bc.Reject(protocol.ErrorServerError, "the request has no endpoint address", "")
		return nil
	}

	raw, err := opts.Transport.Send(ctx, bc.Request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		bc.Reject(protocol.ErrorServerError,
			fmt.Sprintf("the request to %s failed: %v", bc.Request.Address.Redacted(), err), "")
		return nil
	}
	if raw == nil {
		bc.Reject(protocol.ErrorServerError, "the transport returned no response", "")
		return nil
	}

	tx.SetProperty(PropertyRawResponse, raw)
	// Drop the buffered body with the operation.
	return tx.Scope().Defer(func() error {
		tx.RemoveProperty(PropertyRawResponse)
		return nil
	})
}

func validateStatus(_ context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	raw, ok := pipeline.Property[*protocol.RawResponse](bc.Transaction, PropertyRawResponse)
	if !ok || raw.IsSuccess() {
		return nil
	}

	desc := fmt.Sprintf("the remote endpoint returned HTTP %d", raw.StatusCode)
	if params, err := protocol.ParseParameters(raw.Body); err == nil && params.Has(protocol.ParamError) {
		desc += " (" + params.String(protocol.ParamError)
		if d := params.String(protocol.ParamErrorDescription); d != "" {
			desc += ": " + d
		}
		desc += ")"
	}
	bc.Reject(protocol.ErrorServerError, desc, "")
	return nil
}

func validateContentType(_ context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	raw, ok := pipeline.Property[*protocol.RawResponse](bc.Transaction, PropertyRawResponse)
	if !ok || raw.Header.Get("Content-Type") == "" {
		return nil
	}

	ctype, err := contenttype.GetMediaType(&http.Request{Header: raw.Header})
	if err == nil && isJSON(ctype) {
		return nil
	}
	bc.Reject(protocol.ErrorServerError,
		"the remote endpoint returned an unexpected content type: "+raw.Header.Get("Content-Type"), "")
	return nil
}

func parseResponse(_ context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	raw, ok := pipeline.Property[*protocol.RawResponse](bc.Transaction, PropertyRawResponse)
	if !ok {
		return nil
	}
	if len(raw.Body) == 0 {
		bc.Reject(protocol.ErrorServerError, "the remote endpoint returned an empty body", "")
		return nil
	}
	params, err := protocol.ParseParameters(raw.Body)
	if err != nil {
		bc.Reject(protocol.ErrorServerError, "the remote endpoint returned a malformed payload: "+err.Error(), "")
		return nil
	}
	bc.Response = &protocol.Response{StatusCode: raw.StatusCode, Parameters: params, Raw: raw.Body}
	return nil
}

func cacheResponse(ctx context.Context, ev events.ExtractResponse) error {
	bc := ev.Context()
	if bc.Response == nil || len(bc.Response.Raw) == 0 {
		return nil
	}
	key := cacheKey(bc.Request)
	if key == "" {
		return nil
	}
	opts := bc.Options()
	err := opts.Cache.Set(ctx, key, bc.Response.Raw,
		storage.WithNamespace(ev.CacheNamespace()),
		storage.WithTTL(opts.CacheTTL),
	)
	if err != nil {
		bc.Logger().WarnContext(ctx, "cache.set.failed", slog.String("key", key), slog.String("err", err.Error()))
		return nil
	}
	bc.Logger().DebugContext(ctx, "cache.stored", slog.String("key", key))
	return nil
}
