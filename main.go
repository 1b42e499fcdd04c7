package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/server"
	"github.com/pthm-cable/meadow/store"
	"github.com/pthm-cable/meadow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restorePath := flag.String("restore", "", "Snapshot file to restore before running")
	dbPath := flag.String("db", "", "SQLite file for run history (empty = disabled)")
	listen := flag.String("listen", "", "Serve the simulation on this address, e.g. :8080 (empty = headless)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop headless runs after N ticks (0 = until collapse)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger, options{
		configPath:  *configPath,
		logStats:    *logStats,
		snapshotDir: *snapshotDir,
		outputDir:   *outputDir,
		restorePath: *restorePath,
		dbPath:      *dbPath,
		listen:      *listen,
		seed:        *seed,
		maxTicks:    *maxTicks,
	}); err != nil {
		logger.Error("meadow failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	logStats    bool
	snapshotDir string
	outputDir   string
	restorePath string
	dbPath      string
	listen      string
	seed        int64
	maxTicks    int
}

func run(logger *slog.Logger, o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	rngSeed := o.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.New(cfg, game.Options{
		Seed:        rngSeed,
		LogStats:    o.logStats,
		OutputDir:   o.outputDir,
		SnapshotDir: o.snapshotDir,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer g.Close()

	if o.restorePath != "" {
		snap, err := telemetry.LoadSnapshot(o.restorePath)
		if err != nil {
			return err
		}
		if err := g.Restore(snap); err != nil {
			return err
		}
	} else if err := populate(g, cfg.Population); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if o.dbPath != "" {
		if st, err = store.Open(o.dbPath); err != nil {
			return err
		}
		defer st.Close()

		yml, err := cfg.EncodeYAML()
		if err != nil {
			return err
		}
		rec := store.NewRecorder(st, rngSeed, string(yml), store.DefaultBatchSize)
		g.OnTick(func(r game.TickReport) {
			if err := rec.Observe(ctx, r.Sample()); err != nil {
				logger.Error("failed to record sample", "error", err)
			}
		})
		g.OnBookmark(func(b telemetry.Bookmark) {
			if err := rec.Bookmark(ctx, b); err != nil {
				logger.Error("failed to record bookmark", "error", err)
			}
		})
		defer func() {
			if err := rec.Flush(context.Background()); err != nil {
				logger.Error("failed to flush samples", "error", err)
			}
		}()
	}

	if o.listen != "" {
		return serve(ctx, logger, g, st, o.listen)
	}
	return runHeadless(ctx, logger, g, o.maxTicks)
}

// populate adds the configured starting population.
func populate(g *game.Game, p config.PopulationConfig) error {
	for _, add := range []struct {
		kind  components.Kind
		count int
	}{
		{components.KindPlant, p.InitialPlants},
		{components.KindPrey, p.InitialPrey},
		{components.KindPredator, p.InitialPredators},
	} {
		if err := g.AddEntities(add.kind, add.count); err != nil {
			return err
		}
	}
	return nil
}

// runHeadless steps as fast as possible until collapse, maxTicks or ctx.
func runHeadless(ctx context.Context, logger *slog.Logger, g *game.Game, maxTicks int) error {
	if err := g.Start(); err != nil {
		return err
	}
	logger.Info("starting headless simulation",
		"seed", g.Seed(),
		"max_ticks", maxTicks,
		"entities", g.EntityCount(),
	)

	for g.Step() {
		if maxTicks > 0 && g.Tick() >= maxTicks {
			logger.Info("max ticks reached", "tick", g.Tick())
			break
		}
		if ctx.Err() != nil {
			logger.Info("interrupted", "tick", g.Tick())
			break
		}
	}

	c := g.Counts()
	logger.Info("simulation finished",
		"tick", g.Tick(),
		"state", g.State().String(),
		"predators", c.Predators,
		"prey", c.Prey,
		"plants", c.Plants,
	)
	return nil
}

// serve paces the game in real time behind the HTTP server. The game waits
// Idle until a client starts it.
func serve(ctx context.Context, logger *slog.Logger, g *game.Game, st *store.Store, addr string) error {
	runner := game.NewRunner(g)
	srv := server.New(g, runner, st, logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	runnerDone := make(chan struct{})
	errCh := make(chan error, 2)
	go func() {
		defer close(runnerDone)
		if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("listening", "addr", addr, "seed", g.Seed())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}

	// The game belongs to the runner until it exits.
	cancelRun()
	<-runnerDone
	return err
}
