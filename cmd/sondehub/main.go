// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// sondehub streams live radiosonde telemetry from the SondeHub feed, or
// downloads historical telemetry from the SondeHub archive, and writes it to
// stdout as newline-delimited JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
)

type config struct {
	serials     []string
	download    string
	date        string
	raw         bool
	workers     int
	logLevel    string
	metricsAddr string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config

	flagSet := pflag.NewFlagSet("sondehub", pflag.ContinueOnError)
	flagSet.StringArrayVar(&cfg.serials, "serial", []string{"#"},
		"sonde serial or topic filter to stream (repeatable)")
	flagSet.StringVar(&cfg.download, "download", "",
		"download the archived telemetry of one sonde serial")
	flagSet.StringVar(&cfg.date, "date", "",
		"download the archived telemetry under a date prefix (YYYY/MM/DD)")
	flagSet.BoolVar(&cfg.raw, "raw", false,
		"write live payloads exactly as received")
	flagSet.IntVar(&cfg.workers, "workers", 0,
		"maximum concurrent archive downloads (default 50)")
	flagSet.StringVar(&cfg.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	flagSet.StringVar(&cfg.metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	archiveMode := cfg.download != "" || cfg.date != ""
	if archiveMode && flagSet.Changed("serial") {
		return errors.New("--serial cannot be combined with --download or --date")
	}
	if cfg.workers < 0 || (flagSet.Changed("workers") && cfg.workers == 0) {
		return fmt.Errorf("invalid --workers value: %d", cfg.workers)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	m, shutdown, err := serveMetrics(cfg.metricsAddr, log)
	if err != nil {
		return err
	}
	defer shutdown()

	out := newOutput(os.Stdout)
	if archiveMode {
		return runDownload(ctx, &cfg, log, m, out)
	}
	return runStream(ctx, &cfg, log, m, out)
}
