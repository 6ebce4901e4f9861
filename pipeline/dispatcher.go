package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher runs the handlers that apply to an event. It holds no state of
// its own beyond the registry and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over r. r is sealed on first use.
func NewDispatcher(r *Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// Registry returns the registry the dispatcher resolves from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs the resolved handlers for ev strictly in order. It stops after
// the first handler that rejects or skips the event. A handler error stops the
// dispatch and is returned as a *HandlerFault. Rejection is not an error: the
// caller inspects ev.Context().
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	bc := ev.Context()
	log := bc.Logger()

	for _, desc := range d.registry.Resolve(ev) {
		start := time.Now()
		if err := desc.Handler.Handle(ctx, ev); err != nil {
			log.ErrorContext(ctx, "dispatch.handler.fault",
				slog.String("handler", desc.ID),
				slog.String("kind", string(ev.Kind())),
				slog.String("err", err.Error()),
			)
			return &HandlerFault{Handler: desc.ID, Kind: ev.Kind(), Err: err}
		}

		switch {
		case bc.IsRejected():
			log.InfoContext(ctx, "dispatch.rejected",
				slog.String("handler", desc.ID),
				slog.String("kind", string(ev.Kind())),
				slog.String("error", bc.ErrorCode()),
				slog.String("error_description", bc.ErrorDescription()),
			)
			return nil
		case bc.IsSkipped():
			log.DebugContext(ctx, "dispatch.skipped",
				slog.String("handler", desc.ID),
				slog.String("kind", string(ev.Kind())),
			)
			return nil
		}

		log.DebugContext(ctx, "dispatch.handler.ok",
			slog.String("handler", desc.ID),
			slog.Duration("dur", time.Since(start)),
		)
	}
	return nil
}
