// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// modstats-host is a stand-in host application with the statistics
// agent embedded. It starts the agent the way a real host would, walks
// through a scripted sequence of phases while calling the agent's
// per-frame callback, and shuts the agent down on exit. Interrupting it
// (SIGINT, SIGTERM) also shuts down cleanly; killing it leaves a
// checkpoint that the next run recovers and uploads.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/modstats/lib/agent"
	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/config"
	"github.com/bureau-foundation/modstats/lib/hostfacts"
	"github.com/bureau-foundation/modstats/lib/process"
	"github.com/bureau-foundation/modstats/lib/spool"
	"github.com/bureau-foundation/modstats/lib/upload"
	"github.com/bureau-foundation/modstats/lib/version"
)

// frameInterval paces the simulated frame loop.
const frameInterval = time.Second / 60

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath   string
		folder       string
		collectorURL string
		phaseFlags   []string
		assumeYes    bool
		noInstall    bool
		showVersion  bool
	)

	flagSet := pflag.NewFlagSet("modstats-host", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to modstats.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&folder, "folder", "", "statistics folder (overrides config)")
	flagSet.StringVar(&collectorURL, "collector-url", "", "report upload URL (overrides config)")
	flagSet.StringSliceVar(&phaseFlags, "phase", []string{"MainMenu=2s", "Flight=5s"}, "phase to simulate as NAME=DURATION, in order (repeatable)")
	flagSet.BoolVar(&assumeYes, "yes", false, "accept reporting without prompting when no settings exist")
	flagSet.BoolVar(&noInstall, "no-install", false, "do not copy this binary into the Plugins folder")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("modstats-host " + version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if folder != "" {
		cfg.Folder = folder
	}
	if collectorURL != "" {
		cfg.CollectorURL = collectorURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	phases, err := parsePhases(phaseFlags)
	if err != nil {
		return err
	}

	logger := process.NewLogger(level).With("component", "modstats-host")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := upload.NewHTTPClient(cfg.UploadTimeout)
	if err != nil {
		return err
	}

	var consent agent.Consent = newTerminalConsent(os.Stdin, os.Stderr)
	if assumeYes {
		consent = acceptConsent{}
	}

	var install []spool.InstallItem
	if !noInstall {
		if executable, err := os.Executable(); err == nil {
			install = append(install, spool.InstallItem{
				Name:   version.AgentName + "-" + version.Version,
				Source: executable,
			})
		} else {
			logger.Warn("could not locate own executable, skipping install", "error", err)
		}
	}

	warnings := hostfacts.NewWarnOnce(logger)
	sources := hostfacts.Sources{
		InstallRoot: cfg.InstallRoot,
		GameVersion: cfg.Host.GameVersion(),
		Warnings:    warnings,
	}
	if cfg.InventoryDir != "" {
		sources.Inventory = hostfacts.DirectoryInventory{Root: cfg.InventoryDir}
	}

	statsAgent, err := agent.Start(ctx, agent.Config{
		Folder:             cfg.Folder,
		Clock:              clock.Real(),
		Logger:             logger,
		Consent:            consent,
		Uploader:           &upload.HTTPUploader{URL: cfg.CollectorURL, UserAgent: version.UserAgent(), Client: client},
		UploadConcurrency:  cfg.UploadConcurrency,
		CheckpointInterval: cfg.CheckpointInterval,
		Facts:              sources,
		Install:            install,
	})
	if err != nil {
		// The host keeps running without statistics.
		logger.Error("statistics agent failed to start", "error", err)
	}
	logger.Info("agent status", "status", statsAgent.Status().String())

	simulate(ctx, clock.Real(), statsAgent, phases)

	if path, err := statsAgent.Shutdown(); err != nil {
		logger.Error("writing session report failed", "error", err)
	} else if path != "" {
		logger.Info("session report written", "path", path)
	}

	if drain := statsAgent.Drain(); drain != nil {
		// Give uploads from previous sessions a moment to finish.
		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.UploadTimeout)
		defer cancel()
		result, err := drain.Wait(waitCtx)
		if err != nil {
			logger.Warn("uploads still pending at exit", "files", result.Files, "sent", result.Sent)
		} else {
			logger.Info("uploads finished", "files", result.Files, "sent", result.Sent, "failed", result.Failed)
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	return config.Default(), nil
}
