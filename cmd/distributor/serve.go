package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/config"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/server"
)

func publishCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	store, err := newPersistence(parsePersistenceConfig(c), l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	input := c.String("input")
	records, err := distribution.LoadRecordsFile(input)
	if err != nil {
		return err
	}

	name := c.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	svc := distribution.NewDistributionService(store, l)
	d, err := svc.Publish(name, records)
	if err != nil {
		return err
	}
	return writeJSON("", d.Summary())
}

func serveCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg := &config.DistributorConfig{
		Port:        c.Int("port"),
		RateLimit:   c.Float64("rate-limit"),
		RateBurst:   c.Int("rate-burst"),
		Persistence: *parsePersistenceConfig(c),
		Debug:       c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := newPersistence(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := distribution.NewDistributionService(store, l)
	for _, input := range c.StringSlice("input") {
		records, err := distribution.LoadRecordsFile(input)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		if _, err := svc.Publish(name, records); err != nil {
			return fmt.Errorf("failed to publish %s: %w", input, err)
		}
	}

	srv := server.NewServer(svc, cfg, l)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	l.Sugar().Infow("Distributor server running",
		"port", cfg.Port,
		"persistence", cfg.Persistence.Type,
		"rate_limit", cfg.RateLimit,
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
