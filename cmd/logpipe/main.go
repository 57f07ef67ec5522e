// Command logpipe wires one TCP syslog source to one writer sink and
// runs until interrupted.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"logpipe/decode"
	"logpipe/event"
	"logpipe/internal/logging"
	"logpipe/pipe"
	"logpipe/serialize"
	"logpipe/sink"
	"logpipe/source"
	"logpipe/syslog"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // filtering is done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "logpipe",
		Short: "Syslog ingestion pipeline",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept syslog over TCP and write decoded events",
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			outPath, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			framing, _ := cmd.Flags().GetString("framing")
			debugFormat, _ := cmd.Flags().GetBool("debug")
			componentLevels, _ := cmd.Flags().GetStringArray("component-level")

			if err := applyComponentLevels(filterHandler, componentLevels); err != nil {
				return err
			}
			logger.Debug("effective log levels",
				"default", filterHandler.DefaultLevel(),
				"source", filterHandler.Level("source"),
				"sink", filterHandler.Level("sink"))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return run(ctx, logger, listen, outPath, format, framing, debugFormat)
		},
	}
	serveCmd.Flags().String("listen", ":5140", "listen address (host:port)")
	serveCmd.Flags().String("out", "", "output file path (default: stdout)")
	serveCmd.Flags().String("format", "event", "serializer: event or logstash")
	serveCmd.Flags().String("framing", "auto", "framing: auto, octet, or newline")
	serveCmd.Flags().Bool("debug", false, "wrap output with the debug header line")
	serveCmd.Flags().StringArray("component-level", nil,
		"override the log level for one component, as name=level (repeatable, e.g. source=debug)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, listen, outPath, format, framing string, debug bool) error {
	out, err := openOutput(outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if f, ok := out.(*os.File); ok && outPath != "" {
		defer f.Close()
	}

	formatFn, err := buildFormat(format)
	if err != nil {
		return err
	}
	if debug {
		formatFn = sink.DebugFormat(formatFn)
	}

	w := sink.New(out, formatFn, logger)

	newDecoder, err := buildDecoderFactory(framing)
	if err != nil {
		return err
	}
	src := source.New(listen, newDecoder, logger)

	logger.Info("starting pipeline", "listen", listen, "format", format, "framing", framing)
	if perr := pipe.Run(ctx, src, w, logger); perr != nil {
		logger.Error("pipeline error", "err", perr)
		return perr
	}
	logger.Info("shutdown complete")
	return nil
}

// applyComponentLevels parses "name=level" pairs and applies each as a
// per-component override on filterHandler.
func applyComponentLevels(filterHandler *logging.ComponentFilterHandler, pairs []string) error {
	for _, pair := range pairs {
		name, levelStr, ok := strings.Cut(pair, "=")
		if !ok || name == "" || levelStr == "" {
			return fmt.Errorf("invalid --component-level %q (want name=level)", pair)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return fmt.Errorf("invalid --component-level %q: %w", pair, err)
		}
		filterHandler.SetLevel(name, level)
	}
	return nil
}

func openOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func buildFormat(name string) (sink.Format, error) {
	switch name {
	case "event", "":
		return func(buf *bytes.Buffer, ev event.Event) error {
			return serialize.Event(buf, ev)
		}, nil
	case "logstash":
		return func(buf *bytes.Buffer, ev event.Event) error {
			le, ok := ev.(event.LogstashEvent)
			if !ok {
				return fmt.Errorf("event does not support logstash projection")
			}
			return serialize.Logstash(buf, le)
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want event or logstash)", name)
	}
}

func buildDecoderFactory(framing string) (source.NewDecoder, error) {
	switch framing {
	case "octet":
		return func() decode.Decoder[syslog.Record] {
			return syslog.NewOctetRecordDecoder(syslog.DefaultMaxMessageSize)
		}, nil
	case "newline":
		return func() decode.Decoder[syslog.Record] {
			return syslog.NewLineRecordDecoder()
		}, nil
	case "auto", "":
		return func() decode.Decoder[syslog.Record] {
			return syslog.NewAutoRecordDecoder(syslog.DefaultMaxMessageSize)
		}, nil
	default:
		return nil, fmt.Errorf("unknown framing %q (want auto, octet, or newline)", framing)
	}
}
