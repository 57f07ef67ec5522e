// Command logpipe-feed sends test syslog messages over TCP to a
// logpipe source, using either octet-counted or newline framing.
//
// Usage:
//
//	go run ./cmd/logpipe-feed [host:port] [count]
//
// Defaults to localhost:5140 and 5 messages.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

func main() {
	addr := "localhost:5140"
	count := 5
	framing := "newline"

	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid count: %v\n", err)
			os.Exit(1)
		}
		count = n
	}
	if len(os.Args) > 3 {
		framing = os.Args[3]
	}

	fmt.Printf("Connecting to %s (%s framing)...\n", addr, framing)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	for i := range count {
		msg := fmt.Sprintf("<14>1 %s testhost logpipe-feed %d - - feed test message %d",
			time.Now().UTC().Format("2006-01-02T15:04:05.000Z"), i, i)

		switch framing {
		case "octet":
			fmt.Fprintf(conn, "%d %s", len(msg), msg)
		case "newline":
			fmt.Fprintf(conn, "%s\n", msg)
		default:
			fmt.Fprintf(os.Stderr, "unknown framing %q (want octet or newline)\n", framing)
			os.Exit(1)
		}
		fmt.Printf("  sent message %d\n", i)
	}

	fmt.Printf("Done, sent %d messages.\n", count)
}
