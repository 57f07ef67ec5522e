package pipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"logpipe/event"
)

type fakeSource struct {
	events []event.Event
	err    error
}

func (f *fakeSource) Run(ctx context.Context, out chan<- event.Event) error {
	for _, ev := range f.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
	return f.err
}

// blockingSource emits nothing and returns only once ctx is canceled.
type blockingSource struct{}

func (blockingSource) Run(ctx context.Context, out chan<- event.Event) error {
	<-ctx.Done()
	return nil
}

type fakeSink struct {
	received []event.Event
	closed   bool
}

func (f *fakeSink) Send(ev event.Event) { f.received = append(f.received, ev) }
func (f *fakeSink) Close()              { f.closed = true }

func TestRunDeliversAllEventsAndClosesSink(t *testing.T) {
	src := &fakeSource{events: []event.Event{nil, nil, nil}}
	sink := &fakeSink{}

	if err := Run(context.Background(), src, sink, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.received) != 3 {
		t.Errorf("received %d events, want 3", len(sink.received))
	}
	if !sink.closed {
		t.Error("sink was never closed")
	}
}

func TestRunWrapsSourceErrorAsInputSide(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{err: boom}
	sink := &fakeSink{}

	err := Run(context.Background(), src, sink, nil)
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if pe.Side != SideInput {
		t.Errorf("side = %v, want SideInput", pe.Side)
	}
	if !errors.Is(err, boom) {
		t.Error("Unwrap does not reach the original source error")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := blockingSource{}
	sink := &fakeSink{}

	if err := Run(ctx, src, sink, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sink.closed {
		t.Error("sink was never closed on cancellation")
	}
}
