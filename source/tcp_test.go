package source

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"logpipe/decode"
	"logpipe/event"
	"logpipe/syslog"
)

// startSource starts a TCP source on a free port and returns its
// address and decoded-event channel.
func startSource(t *testing.T) (string, chan event.Event) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := make(chan event.Event, 10)
	newDecoder := func() decode.Decoder[syslog.Record] {
		return syslog.NewLineRecordDecoder()
	}
	src := New(addr, newDecoder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := src.Run(ctx, out); err != nil && ctx.Err() == nil {
			t.Errorf("Run: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	return addr, out
}

func recvEvent(t *testing.T, out chan event.Event) event.Event {
	t.Helper()
	select {
	case ev := <-out:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestTCPSourceDecodesOneConnection(t *testing.T) {
	addr, out := startSource(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "<165>1 2003-10-11T22:14:15.003Z myhost myapp - ID47 - hello\n")

	ev := recvEvent(t, out)
	if ev.Source() != "myhost" {
		t.Errorf("Source() = %q, want myhost", ev.Source())
	}
	if ev.ID() != "ID47" {
		t.Errorf("ID() = %q, want ID47", ev.ID())
	}
}

func TestTCPSourceHandlesMultipleConnectionsConcurrently(t *testing.T) {
	addr, out := startSource(t)

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		fmt.Fprintf(conn, "<165>1 2003-10-11T22:14:15.003Z host%d app - - - message %d\n", i, i)
		conn.Close()
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		ev := recvEvent(t, out)
		seen[ev.Source()] = true
	}
	for i := 0; i < 3; i++ {
		host := fmt.Sprintf("host%d", i)
		if !seen[host] {
			t.Errorf("never received an event from %s", host)
		}
	}
}

func TestTCPSourceIsolatesDecodeErrorsToOneConnection(t *testing.T) {
	addr, out := startSource(t)

	bad, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	fmt.Fprintf(bad, "not a valid record\n")
	bad.Close()

	good, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer good.Close()
	fmt.Fprintf(good, "<165>1 2003-10-11T22:14:15.003Z host app - - - ok\n")

	ev := recvEvent(t, out)
	if ev.Source() != "host" {
		t.Errorf("Source() = %q, want host", ev.Source())
	}
}
