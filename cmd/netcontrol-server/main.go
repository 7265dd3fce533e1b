// Command netcontrol-server runs the network control analysis engine
// behind an HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bionetlab/netcontrol/pkg/analysis"
	"github.com/bionetlab/netcontrol/pkg/api"
	"github.com/bionetlab/netcontrol/pkg/broadcast"
	"github.com/bionetlab/netcontrol/pkg/config"
	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/logging"
	"github.com/bionetlab/netcontrol/pkg/metrics"
	"github.com/bionetlab/netcontrol/pkg/pubsub"
	"github.com/bionetlab/netcontrol/pkg/server"
	"github.com/bionetlab/netcontrol/pkg/store"
	"github.com/bionetlab/netcontrol/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	log := logger.With(logging.Component("main"))

	registry := metrics.NewRegistry()

	// Persistence: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pg, err := store.NewPGStore(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			log.Error("failed to connect to database", logging.Error(err))
			os.Exit(1)
		}
		st = pg
		log.Info("using Postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Info("using in-memory store")
	}
	defer st.Close()

	// Live progress fanout for broadcast subscribers.
	bus := pubsub.NewBus()
	defer bus.Close()

	var broadcaster *broadcast.Broadcaster
	if cfg.Broadcast.Enabled {
		b, err := broadcast.NewBroadcaster(cfg.Broadcast.ListenAddr, bus, logger)
		if err != nil {
			log.Error("failed to start broadcaster", logging.Error(err))
			os.Exit(1)
		}
		broadcaster = b
		defer broadcaster.Close()
	}

	runner := analysis.NewRunner(analysis.MultiSink(st, bus.Sink()), logger, registry)
	if cfg.Engine.CoveragePolicy == "reachability" {
		runner.SetCoveragePolicy(control.ReachabilityPolicy{})
	}

	pool := worker.NewPool(cfg.Engine.Workers, runner, logger)
	defer pool.Close()

	apiServer := api.NewServer(st, pool, registry, logger, api.Defaults{
		IterationLimit:     cfg.Engine.IterationLimit,
		NoImprovementLimit: cfg.Engine.NoImprovementLimit,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	gs := server.NewGracefulServer(addr, apiServer.Handler(), cfg.Server.ShutdownTimeout, logger)

	log.Info("netcontrol server starting",
		logging.String("addr", addr),
		logging.Int("workers", cfg.Engine.Workers),
		logging.String("coveragePolicy", cfg.Engine.CoveragePolicy))

	if err := gs.Start(); err != nil {
		log.Error("server failed", logging.Error(err))
		os.Exit(1)
	}
	log.Info("netcontrol server stopped")
}
