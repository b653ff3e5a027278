// Command sspqd runs the SSPQ broker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mee4895/sspq-go/broker"
	"github.com/mee4895/sspq-go/internal/debug"
)

const version = "sspqd v0.1.0"

func main() {
	var (
		host              string
		port              int
		logLevel          string
		noDeadLetterQueue bool
		forceRetries      int
		showVersion       bool
	)

	pflag.StringVar(&host, "host", "127.0.0.1", "Set the host address. Use 0.0.0.0 to make the server public")
	pflag.IntVarP(&port, "port", "p", broker.DefaultPort, "Set the port the server listens to")

	pflag.StringVarP(&logLevel, "loglevel", "l", "info", "Set the appropriate log level for stdout. One of: fail | warn | info | dbug")
	pflag.StringVar(&logLevel, "ll", "info", "Alias for --loglevel")

	pflag.BoolVar(&noDeadLetterQueue, "no-dead-letter-queue", false, "Disable the dead-letter queue; DEAD_RECEIVE is always refused")
	pflag.BoolVar(&noDeadLetterQueue, "ndlq", false, "Alias for --no-dead-letter-queue")

	pflag.IntVarP(&forceRetries, "force-retries", "r", -1, "Override the retries field of every incoming SEND item (0..255)")
	pflag.BoolVarP(&showVersion, "version", "v", false, "Print the version and exit")

	pflag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	level, err := debug.ParseLogLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := broker.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.LogLevel = level
	cfg.DeadLetterEnabled = !noDeadLetterQueue

	if forceRetries >= 0 {
		if forceRetries > 255 {
			fmt.Fprintln(os.Stderr, "--force-retries must be 0..255")
			os.Exit(2)
		}
		v := uint8(forceRetries)
		cfg.ForceRetries = &v
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	broker.RegisterLogger(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level.Slog()}))

	b := broker.New(cfg)
	ln, err := broker.Listen(b)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ln.Serve(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
