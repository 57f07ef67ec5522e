// Package pipe wires a source and a sink together (C9) and defines the
// composite error type shared across a pipeline's two halves.
package pipe

import (
	"context"
	"fmt"
	"log/slog"

	"logpipe/event"
	"logpipe/internal/logging"
)

// Side tags which half of a pipeline an error came from.
type Side int

const (
	SideInput Side = iota
	SideOutput
)

// Error is the composite pipeline error, PipeError<I, O> in the
// source's own terms: either an input (source) failure or an output
// (sink) failure, never both.
type Error struct {
	Side Side
	Err  error
}

func (e *Error) Error() string {
	switch e.Side {
	case SideInput:
		return fmt.Sprintf("pipe: input: %v", e.Err)
	default:
		return fmt.Sprintf("pipe: output: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Source is anything that pumps events into a channel until ctx is
// canceled or it hits a fatal error.
type Source interface {
	Run(ctx context.Context, out chan<- event.Event) error
}

// Sink accepts events one at a time and is closed once no more will
// arrive.
type Sink interface {
	Send(ev event.Event)
	Close()
}

// Run connects src to sink over an internally owned channel sized to
// the source's usual bound, and blocks until ctx is canceled or src
// returns. On return, sink is always closed so its background
// goroutine can flush and exit.
//
// A send into the internal channel never blocks past sink draining it
// to completion, since sink itself owns the bounded channel to its
// writer goroutine; this channel exists only to decouple Source.Run's
// per-connection goroutines from the single Sink.
func Run(ctx context.Context, src Source, sink Sink, log *slog.Logger) error {
	log = logging.Default(log).With("component", "pipe")

	events := make(chan event.Event, 10)
	defer func() {
		log.Debug("closing sink")
		sink.Close()
	}()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			sink.Send(ev)
		}
	}()

	log.Debug("pipeline started")
	err := src.Run(ctx, events)
	close(events)
	<-drained

	if err != nil {
		log.Warn("source stopped with error", "err", err)
		return &Error{Side: SideInput, Err: err}
	}
	return nil
}
