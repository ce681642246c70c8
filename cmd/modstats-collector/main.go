// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// modstats-collector receives report uploads from statistics agents
// and stores them in a SQLite database. See lib/collector for the HTTP
// API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/collector"
	"github.com/bureau-foundation/modstats/lib/config"
	"github.com/bureau-foundation/modstats/lib/process"
	"github.com/bureau-foundation/modstats/lib/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		database    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("modstats-collector", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to modstats.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&listen, "listen", "", "address to serve on (overrides config)")
	flagSet.StringVar(&database, "database", "", "SQLite database file (overrides config)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("modstats-collector " + version.Full())
		return nil
	}

	cfg := config.Default()
	if configPath != "" || os.Getenv(config.EnvironmentVariable) != "" {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
	}
	if listen != "" {
		cfg.Collector.Listen = listen
	}
	if database != "" {
		cfg.Collector.Database = database
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := process.NewLogger(level).With("component", "modstats-collector")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Collector.Database), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	store, err := collector.OpenStore(ctx, collector.StoreConfig{
		Path:   cfg.Collector.Database,
		Clock:  clock.Real(),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	listener, err := net.Listen("tcp", cfg.Collector.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Collector.Listen, err)
	}

	server := &http.Server{
		Handler:           collector.NewServer(store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- server.Serve(listener)
	}()

	logger.Info("collector listening",
		"address", listener.Addr().String(),
		"database", cfg.Collector.Database,
		"version", version.Version,
	)

	select {
	case err := <-serveErrors:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
