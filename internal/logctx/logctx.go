package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the transaction data carried by the context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if td, ok := ctx.Value(transactionDataKey{}).(*TransactionData); ok {
		attrs := []any{
			slog.String("id", td.ID),
			slog.String("op", td.Operation),
		}
		if stage, ok := ctx.Value(stageKey{}).(string); ok {
			attrs = append(attrs, slog.String("stage", stage))
		}
		r.AddAttrs(slog.Group("tx", attrs...))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// Wrap returns a logger whose handler adds transaction data, unless it
// already does.
func Wrap(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	if _, ok := l.Handler().(Handler); ok {
		return l
	}
	return slog.New(Handler{Handler: l.Handler()})
}

type transactionDataKey struct{}

type TransactionData struct {
	ID        string
	Operation string
}

func WithTransactionData(ctx context.Context, data *TransactionData) context.Context {
	return context.WithValue(ctx, transactionDataKey{}, data)
}

type stageKey struct{}

func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey{}, stage)
}
