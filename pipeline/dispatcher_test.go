package pipeline

import (
	"context"
	"errors"
	"testing"
)

func TestDispatch_RunsInOrder(t *testing.T) {
	r, _ := NewRegistry(
		desc("ten", 10, record("ten")),
		desc("five-a", 5, record("five-a")),
		desc("five-b", 5, record("five-b")),
		desc("twenty", 20, record("twenty")),
	)
	ev := newTestEvent(nil)
	if err := NewDispatcher(r).Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{"five-a", "five-b", "ten", "twenty"}
	if !equal(ev.trail, want) {
		t.Fatalf("trail: got %v want %v", ev.trail, want)
	}
}

func TestDispatch_RejectStops(t *testing.T) {
	reject := HandlerFunc[*testEvent](func(_ context.Context, ev *testEvent) error {
		ev.trail = append(ev.trail, "reject")
		ev.Reject("invalid_token", "nope", "https://errors.example/nope")
		return nil
	})
	r, _ := NewRegistry(
		desc("first", 1, record("first")),
		desc("reject", 2, reject),
		desc("after", 3, record("after")),
	)
	ev := newTestEvent(nil)
	if err := NewDispatcher(r).Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !equal(ev.trail, []string{"first", "reject"}) {
		t.Fatalf("trail: %v", ev.trail)
	}
	if !ev.IsRejected() || ev.IsSkipped() {
		t.Fatalf("state: rejected=%v skipped=%v", ev.IsRejected(), ev.IsSkipped())
	}
	if ev.ErrorCode() != "invalid_token" || ev.ErrorDescription() != "nope" || ev.ErrorURI() != "https://errors.example/nope" {
		t.Fatalf("error triple: %q %q %q", ev.ErrorCode(), ev.ErrorDescription(), ev.ErrorURI())
	}
}

func TestDispatch_SkipStopsWithoutFailure(t *testing.T) {
	skip := HandlerFunc[*testEvent](func(_ context.Context, ev *testEvent) error {
		ev.trail = append(ev.trail, "skip")
		ev.Skip()
		return nil
	})
	r, _ := NewRegistry(desc("skip", 1, skip), desc("after", 2, record("after")))
	ev := newTestEvent(nil)
	if err := NewDispatcher(r).Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !equal(ev.trail, []string{"skip"}) {
		t.Fatalf("trail: %v", ev.trail)
	}
	if !ev.IsSkipped() || ev.IsRejected() {
		t.Fatalf("state: rejected=%v skipped=%v", ev.IsRejected(), ev.IsSkipped())
	}
}

func TestDispatch_RejectOverridesSkip(t *testing.T) {
	ev := newTestEvent(nil)
	ev.Skip()
	ev.Reject("", "boom", "")
	if !ev.IsRejected() || ev.IsSkipped() {
		t.Fatal("reject should override skip")
	}
	if ev.ErrorCode() != "server_error" {
		t.Fatalf("empty code should default to server_error, got %q", ev.ErrorCode())
	}
	ev.Skip()
	if !ev.IsRejected() {
		t.Fatal("skip must not clear a rejection")
	}
}

func TestDispatch_HandlerFault(t *testing.T) {
	boom := errors.New("boom")
	failing := HandlerFunc[*testEvent](func(context.Context, *testEvent) error { return boom })
	r, _ := NewRegistry(desc("failing", 1, failing), desc("after", 2, record("after")))

	ev := newTestEvent(nil)
	err := NewDispatcher(r).Dispatch(context.Background(), ev)
	var fault *HandlerFault
	if !errors.As(err, &fault) {
		t.Fatalf("want *HandlerFault, got %v", err)
	}
	if fault.Handler != "failing" || fault.Kind != testKind {
		t.Fatalf("fault: %+v", fault)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("fault should unwrap to the handler error")
	}
	if len(ev.trail) != 0 {
		t.Fatalf("later handlers ran: %v", ev.trail)
	}
}

func TestDispatch_EventMismatch(t *testing.T) {
	type otherEvent struct{ testEvent }
	wrong := HandlerFunc[*otherEvent](func(context.Context, *otherEvent) error { return nil })
	r, _ := NewRegistry(desc("wrong", 1, wrong))

	err := NewDispatcher(r).Dispatch(context.Background(), newTestEvent(nil))
	if !errors.Is(err, ErrEventMismatch) {
		t.Fatalf("want ErrEventMismatch, got %v", err)
	}
}

func TestDispatch_NoHandlers(t *testing.T) {
	r, _ := NewRegistry()
	ev := newTestEvent(nil)
	if err := NewDispatcher(r).Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if ev.IsRejected() || ev.IsSkipped() {
		t.Fatal("empty dispatch should leave the event in continue state")
	}
}
