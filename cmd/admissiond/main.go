package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/config"
	"github.com/maegy2011/yt-sub000/internal/admission/gateways/httpapi"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/bloom"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/boltdb"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/decisioncache"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/identifiers"
	"github.com/maegy2011/yt-sub000/internal/admission/services/admission"
	"github.com/maegy2011/yt-sub000/internal/admission/services/catalog"
	"github.com/maegy2011/yt-sub000/internal/admission/services/importer"
	"github.com/maegy2011/yt-sub000/internal/admission/services/patterns"
)

const (
	version = "0.1.0-dev"
	appName = "admissiond"
)

// Application holds all the components of the admission server
type Application struct {
	config  *config.AppConfig
	store   *boltdb.Store
	cache   *decisioncache.Cache
	engine  *patterns.Engine
	imports *importer.Pipeline
	server  *http.Server
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.Log.Level,
		"addr":           cfg.HTTP.Addr,
		"store":          cfg.Store.Path,
		"cache_size":     cfg.Cache.Size,
		"block_severity": cfg.Filter.BlockSeverity,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}
	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication opens the store and wires every component. On error
// the store is closed again.
func buildApplication(cfg *config.AppConfig) (app *Application, err error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	store, err := boltdb.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()
	if stats, err := store.Stats(); err == nil {
		logger.Info(map[string]any{
			"blacklist":  stats.Blacklist,
			"whitelist":  stats.Whitelist,
			"patterns":   stats.Patterns,
			"categories": stats.Categories,
			"batches":    stats.Batches,
		}, "store_opened")
	}

	ids := identifiers.New(store, bloom.NewFactory(), cfg.Filter.BloomCapacity, cfg.Filter.BloomFPRate, logger)
	if err := ids.Rebuild(); err != nil {
		return nil, fmt.Errorf("failed to build identifier filters: %w", err)
	}

	engine := patterns.NewEngine(store,
		patterns.WithClock(clk),
		patterns.WithLogger(logger),
		patterns.WithStatsBuffer(cfg.Filter.StatsBuffer),
		patterns.WithFlushInterval(cfg.Filter.StatsFlushInterval),
	)

	cache, err := decisioncache.New(cfg.Cache.Size, decisioncache.DefaultShards, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	svc := admission.New(ids, engine, cache, admission.Config{
		DecisionTTL:   cfg.Cache.DecisionTTL,
		PatternTTL:    cfg.Cache.PatternTTL,
		BlockSeverity: cfg.Filter.Severity(),
	}, admission.WithClock(clk), admission.WithLogger(logger))

	cat := catalog.New(ids, store, store,
		catalog.WithRules(engine),
		catalog.WithInvalidator(svc),
		catalog.WithClock(clk),
		catalog.WithLogger(logger),
	)
	if err := cat.EnsureSystemCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed system categories: %w", err)
	}
	if err := engine.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load pattern rules: %w", err)
	}

	imports := importer.New(ids, store, importer.Config{
		MaxItems:         cfg.Import.MaxItems,
		DefaultChunkSize: cfg.Import.ChunkSize,
		MaxConcurrent:    cfg.Import.MaxConcurrent,
	}, importer.WithClock(clk), importer.WithLogger(logger), importer.WithOnCommit(svc.Invalidate))
	if _, err := imports.RecoverInterrupted(); err != nil {
		return nil, fmt.Errorf("failed to recover interrupted imports: %w", err)
	}

	api := httpapi.New(cat, imports, svc, store,
		httpapi.WithLogger(logger),
		httpapi.WithRequestTimeout(cfg.HTTP.WriteTimeout),
	)

	return &Application{
		config:  cfg,
		store:   store,
		cache:   cache,
		engine:  engine,
		imports: imports,
		server: &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      api.Router(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
	}, nil
}

// Run serves HTTP and the background loops until ctx is cancelled, then
// shuts everything down and closes the store.
func (app *Application) Run(ctx context.Context) error {
	logger := log.GetLogger()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.cache.Run(gctx, app.config.Cache.SweepInterval, logger)
		return nil
	})
	g.Go(func() error {
		app.engine.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info(map[string]any{"address": app.server.Addr}, "HTTP server started")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(nil, "Shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := app.imports.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("import shutdown: %w", err))
		}
		if len(errs) > 0 {
			log.Warn(map[string]any{"timeout": app.config.HTTP.ShutdownTimeout, "error": errors.Join(errs...)}, "Shutdown incomplete")
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if cerr := app.store.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
	}
	if err == nil {
		log.Info(nil, "Graceful shutdown completed")
	}
	return err
}
