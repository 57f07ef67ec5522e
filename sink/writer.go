// Package sink implements C8, the writer sink: a background writer
// that drains a bounded channel, formats each event with a
// caller-supplied function, and writes the result to a blocking
// output.
package sink

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"logpipe/event"
	"logpipe/internal/logging"
)

// channelBound is the bound on the writer's inbound event channel.
const channelBound = 100

// Format renders one event into buf. buf is reused across calls and is
// cleared by the caller before each invocation; Format must not retain
// it past the call.
type Format func(buf *bytes.Buffer, ev event.Event) error

// Writer drains a bounded channel on a dedicated goroutine and writes
// formatted events to out. The scratch buffer and out are owned solely
// by that goroutine; no external synchronization is required.
type Writer struct {
	ch   chan event.Event
	done chan struct{}
	log  *slog.Logger
}

// New starts a Writer's background goroutine, formatting events with
// format and writing them to out through a buffered wrapper that is
// flushed after every event and on Close.
func New(out io.Writer, format Format, log *slog.Logger) *Writer {
	log = logging.Default(log).With("component", "sink")
	w := &Writer{
		ch:   make(chan event.Event, channelBound),
		done: make(chan struct{}),
		log:  log,
	}
	go w.run(out, format)
	return w
}

// Send enqueues ev for writing. A failed send past a closed Writer is a
// programming bug, not a runtime condition to recover from: the
// consumer died before the producer, so Send panics rather than
// silently dropping the event.
func (w *Writer) Send(ev event.Event) {
	select {
	case w.ch <- ev:
	case <-w.done:
		panic("sink: Send on a closed Writer")
	}
}

// Close stops accepting new events, flushes the output, and blocks
// until the background goroutine has exited, so no event is lost in
// transit.
func (w *Writer) Close() {
	close(w.ch)
	<-w.done
}

func (w *Writer) run(out io.Writer, format Format) {
	defer close(w.done)

	bw := bufio.NewWriter(out)
	var buf bytes.Buffer

	for ev := range w.ch {
		buf.Reset()
		if err := format(&buf, ev); err != nil {
			w.log.Warn("failed to format event, dropping", "err", err)
			continue
		}
		if _, err := bw.Write(buf.Bytes()); err != nil {
			w.log.Warn("failed to write event", "err", err)
			continue
		}
		if err := bw.Flush(); err != nil {
			w.log.Warn("failed to flush output", "err", err)
		}
	}
	if err := bw.Flush(); err != nil {
		w.log.Warn("failed to flush output on close", "err", err)
	}
}

// DebugHeader formats the fixed debug header line
// "<id> <source> [<rfc3339-timestamp>] -- " ahead of a serialized
// payload; DebugFormat below wraps an underlying Format with it.
func DebugHeader(buf *bytes.Buffer, ev event.Event) {
	fmt.Fprintf(buf, "%s %s [%s] -- ", ev.ID(), ev.Source(), ev.Timestamp().UTC().Format("2006-01-02T15:04:05.000Z"))
}

// DebugFormat wraps inner with the fixed debug header and a trailing
// newline, matching the debug_print/debug_to_file convenience wrapper.
func DebugFormat(inner Format) Format {
	return func(buf *bytes.Buffer, ev event.Event) error {
		DebugHeader(buf, ev)
		if err := inner(buf, ev); err != nil {
			return err
		}
		buf.WriteByte('\n')
		return nil
	}
}
