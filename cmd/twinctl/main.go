package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/config"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/coordinator"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/dashboard"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/metrics"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/renderer"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/scene"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("twinctl failed")
	}
	logger.Info().Msg("Exiting...")
}

func run(ctx context.Context) error {
	store, err := metrics.NewStore(metrics.Config{
		WindowSize:     cfg.WindowSize,
		MemoryInterval: time.Duration(cfg.MemoryInterval) * time.Millisecond,
		DBPath:         cfg.MetricsDB,
		Enabled:        cfg.Metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metrics store")
		}
	}()

	collector, err := metrics.NewCollector(metrics.Config{
		WindowSize:     cfg.WindowSize,
		MemoryInterval: time.Duration(cfg.MemoryInterval) * time.Millisecond,
		DBPath:         cfg.MetricsDB,
		Enabled:        cfg.Metrics,
	}, store)
	if err != nil {
		return err
	}

	client, err := ditto.NewClient(ditto.Config{
		BaseURL:  cfg.BackendURL,
		ThingID:  cfg.ThingID,
		Username: cfg.Username,
		Password: cfg.Password,
	}, collector)
	if err != nil {
		return err
	}

	// The demo backend starts empty; seed the mixer thing if needed so
	// the first poll has something to fetch
	if err := client.EnsureThing(ctx, twin.Seed(cfg.ThingID)); err != nil {
		logger.Warn().Err(err).Msg("Could not verify twin exists, continuing anyway")
	}

	poller := ditto.NewPoller(client, time.Duration(cfg.PollInterval)*time.Millisecond)

	manifest := scene.Empty()
	if cfg.SceneManifest != "" {
		manifest, err = scene.Load(cfg.SceneManifest)
		if err != nil {
			return err
		}
	}

	hub := dashboard.NewHub()
	registry := renderer.NewRegistry()
	registry.Register("console", func() (renderer.Adapter, error) {
		return renderer.NewConsole(collector), nil
	})
	registry.Register("web", func() (renderer.Adapter, error) {
		return dashboard.NewWebAdapter(hub, collector), nil
	})

	coord := coordinator.New(coordinator.Config{
		DefaultModelID:  "mixer",
		QuiescenceDelay: time.Duration(cfg.QuiescenceDelay) * time.Millisecond,
		WriteDebounce:   time.Duration(cfg.WriteDebounce) * time.Millisecond,
		MixerCount:      cfg.MixerCount,
	}, client, poller, collector, registry, manifest)
	defer coord.Stop()

	if cfg.Framework != "" {
		if err := coord.SelectFramework(cfg.Framework); err != nil {
			logger.Error().Err(err).Str("framework", cfg.Framework).
				Msg("Initial framework selection failed, dashboard can retry")
		}
	}

	server := dashboard.NewServer(cfg.ListenAddr, coord, collector, hub, cfg.ExportDir)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Dashboard shutdown failed")
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
