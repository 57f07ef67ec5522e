// Package source implements C7, the TCP source: an accept loop that
// multiplexes many connections onto a single bounded event channel.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/muesli/cancelreader"
	"golang.org/x/sync/errgroup"

	"logpipe/decode"
	"logpipe/event"
	"logpipe/internal/logging"
	"logpipe/syslog"
	"logpipe/syslogevent"
)

// channelBound is the bound on the shared decoded-event channel every
// connection's goroutine feeds into.
const channelBound = 10

// NewDecoder builds the per-connection decoder for one accepted
// connection. Swapping this out lets a caller choose octet or newline
// framing, or auto-detect between them, without TCP changing at all.
type NewDecoder func() decode.Decoder[syslog.Record]

// TCP is a syslog TCP source (C7). It binds one listener and fans
// decoded events from every accepted connection into a single shared
// channel.
type TCP struct {
	addr       string
	newDecoder NewDecoder
	log        *slog.Logger

	nextConnID atomic.Uint64
}

// New returns a TCP source bound to addr. newDecoder is invoked once
// per accepted connection to build a fresh, independent decoder.
func New(addr string, newDecoder NewDecoder, log *slog.Logger) *TCP {
	log = logging.Default(log).With("component", "source")
	return &TCP{addr: addr, newDecoder: newDecoder, log: log}
}

// Run binds the listener and serves until ctx is canceled. It returns an
// error only if binding fails; a failed Accept is logged and the loop
// keeps accepting. It sends decoded events to out and never closes out
// itself; the caller owns out's lifetime. Per-connection decode errors
// are logged and isolated to their connection; they never reach the
// caller through Run's return value.
func (t *TCP) Run(ctx context.Context, out chan<- event.Event) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("source: listen %s: %w", t.addr, err)
	}
	defer ln.Close()

	t.log.Info("listening", "addr", t.addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return g.Wait()
			}
			t.log.Warn("accept failed", "err", err)
			continue
		}

		connID := t.nextConnID.Add(1)
		connLog := t.log.With("conn_id", connID, "remote", conn.RemoteAddr())
		dec := t.newDecoder()

		g.Go(func() error {
			t.serveConn(ctx, conn, dec, connLog, out)
			return nil
		})
	}
}

// serveConn runs the framed decoder loop for one connection, forwarding
// each decoded record as an event.Event into out until the connection
// ends or a decode error is hit.
func (t *TCP) serveConn(ctx context.Context, conn net.Conn, dec decode.Decoder[syslog.Record], log *slog.Logger, out chan<- event.Event) {
	defer conn.Close()
	log.Debug("connection accepted")
	defer log.Debug("connection closed")

	cr, err := cancelreader.NewReader(conn)
	if err != nil {
		log.Warn("failed to wrap connection in cancel reader", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		cr.Cancel()
	}()

	reader := decode.NewFramedReader(cr, dec)
	for {
		rec, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("end of stream")
				return
			}
			if errors.Is(err, cancelreader.ErrCanceled) {
				log.Debug("read canceled")
				return
			}
			log.Warn("decode error, closing connection", "err", err)
			return
		}

		ev := syslogevent.New(rec)
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
