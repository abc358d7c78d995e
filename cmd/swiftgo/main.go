package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"swiftgo/internal/api"
	"swiftgo/pkg/aircraft"
	"swiftgo/pkg/config"
	"swiftgo/pkg/db"
	"swiftgo/pkg/db/maintenance"
	"swiftgo/pkg/logging"
	"swiftgo/pkg/metrics"
	"swiftgo/pkg/probe"
	"swiftgo/pkg/request"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/mocksim"
	"swiftgo/pkg/store"
	"swiftgo/pkg/terrain"
	"swiftgo/pkg/tracker"
	"swiftgo/pkg/traffic"
	"swiftgo/pkg/vatsim"
	"swiftgo/pkg/version"
)

var (
	configPath = flag.String("config", "configs/swiftgo.yaml", "Path to the config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	// A missing .env is fine, the environment may be set otherwise.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logs.Close()

	slog.Info("SwiftGo Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	cfgProv := config.NewProvider(appCfg, st)

	elevation, err := initElevation(ctx, appCfg, st)
	if err != nil {
		return err
	}

	if err := maintenance.Run(ctx, st, dbConn, maintenance.Options{
		ModelSet:         appCfg.Traffic.ModelSet,
		RetainElevations: appCfg.Terrain.RetainSamples.D(),
	}); err != nil {
		return err
	}
	matcher := aircraft.NewMatcher(st, appCfg.Traffic.DefaultModel)

	remote := aircraft.NewRemoteProvider(aircraft.DefaultHistory, aircraft.DefaultMaxExtrapolation)
	own := aircraft.NewOwnProvider()

	met, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	simProvider := cfgProv.SimProvider(ctx)
	simAPI, isMock := initializeSimAPI(appCfg, simProvider)

	results := probe.Run(ctx, []probe.Probe{
		{Name: "Database", Check: probe.Database(dbConn), Critical: true},
		{Name: "Model Set File", Check: probe.File(appCfg.Traffic.ModelSet)},
		{Name: "Model Matching", Check: probe.Models(st, appCfg.Traffic.DefaultModel), Critical: true},
		{Name: "Simulator", Check: probe.SimBackend(simProvider, isMock)},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	hub := api.NewEventHub()
	defer hub.Close()

	mgr := traffic.New(trafficConfig(ctx, appCfg, cfgProv), traffic.Deps{
		API:         simAPI,
		Remote:      remote,
		Own:         own,
		Listener:    sim.StatusListeners{hub, logListener{}},
		Models:      matcher,
		Elevation:   elevation,
		Metrics:     met,
		TraceLogger: logs.Trace,
	})

	tr := tracker.New()
	client := request.New(tr,
		request.WithTimeout(appCfg.Request.Timeout.D()),
		request.WithRetry(appCfg.Request.Retries, time.Second),
		request.WithBackoff(request.NewBackoff(appCfg.Request.Backoff.BaseDelay.D(), appCfg.Request.Backoff.MaxDelay.D())),
	)

	srv := api.NewServer(appCfg.Server.Address, api.Handlers{
		Aircraft:  api.NewAircraftHandler(mgr, remote),
		Telemetry: api.NewTelemetryHandler(own, mgr),
		Settings:  api.NewSettingsHandler(cfgProv, mgr),
		Stats:     api.NewStatsHandler(tr, mgr, elevation),
		Logs:      api.NewLogHandler(logs.Capture),
		Events:    hub,
		Metrics:   met.Handler(),
	}, cancel)
	srv.Handler = loggingMiddleware(srv.Handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mgr.Run(gctx) })
	g.Go(func() error { return runServerLifecycle(gctx, srv) })

	// The feed can be switched on and off at runtime.
	feed := vatsim.New(vatsim.Config{
		URL:      appCfg.Vatsim.URL,
		Interval: appCfg.Vatsim.Interval.D(),
		RangeNM:  appCfg.Vatsim.Range.NM(),
		StaleAge: appCfg.Vatsim.StaleAge.D(),
		Enabled:  cfgProv.FeedEnabled,
	}, client, remote, own)
	g.Go(func() error { return feed.Run(gctx) })
	if isMock && appCfg.Mock.Traffic > 0 {
		gen := mocksim.NewTrafficGenerator(appCfg.Mock.StartLat, appCfg.Mock.StartLon, appCfg.Mock.Traffic, 1, time.Now())
		slog.Info("Synthetic traffic enabled", "aircraft", appCfg.Mock.Traffic)
		g.Go(func() error { return gen.Run(gctx, time.Second, remote) })
	}
	g.Go(func() error {
		pruneRemote(gctx, remote, appCfg.Vatsim.StaleAge.D())
		return nil
	})

	err = g.Wait()
	slog.Info("SwiftGo stopped")
	return err
}

func initDB(appCfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func initElevation(ctx context.Context, appCfg *config.Config, st store.ElevationStore) (*terrain.ElevationCache, error) {
	cache, err := terrain.NewElevationCache(appCfg.Terrain.CacheSize, appCfg.Terrain.H3Resolution, st)
	if err != nil {
		return nil, fmt.Errorf("failed to create elevation cache: %w", err)
	}
	if appCfg.Terrain.WarmCells > 0 {
		n, err := cache.Warm(ctx, appCfg.Terrain.WarmCells)
		if err != nil {
			slog.Warn("Warming elevation cache failed", "error", err)
		} else {
			slog.Info("Elevation cache warmed", "cells", n)
		}
	}
	return cache, nil
}

func trafficConfig(ctx context.Context, appCfg *config.Config, p config.Provider) traffic.Config {
	t := appCfg.Traffic
	return traffic.Config{
		AppName:           appCfg.Sim.AppName,
		DispatchInterval:  appCfg.Sim.DispatchInterval.D(),
		ReconnectInterval: appCfg.Sim.ReconnectInterval.D(),
		WatchdogTimeout:   appCfg.Sim.WatchdogTimeout.D(),
		ReconcileInterval: t.ReconcileInterval.D(),
		UpdateInterval:    t.UpdateInterval.D(),
		VerifyDelay:       t.VerifyDelay.D(),
		AddAgainDelay:     t.AddAgainDelay.D(),
		OutdatedPending:   t.OutdatedPending.D(),
		MaxAircraft:       p.MaxAircraft(ctx),
		MaxRangeNM:        p.MaxRangeNM(ctx),
		MaxPendingAdds:    t.MaxPendingAdds,
		TraceSendIDs:      p.TraceSendIDs(ctx),
		MaxSendIDTraces:   t.MaxSendIDTraces,
		DefaultModel:      t.DefaultModel,
		ProbeTitle:        t.ProbeTitle,
		ElevationRefresh:  t.ElevationRefresh.D(),
	}
}

// pruneRemote drops aircraft no source updated for maxAge. The feed prunes
// its own, this covers synthetic traffic and a disabled feed.
func pruneRemote(ctx context.Context, remote *aircraft.RemoteProvider, maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	ticker := time.NewTicker(maxAge / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if gone := remote.Prune(now.Add(-maxAge)); len(gone) > 0 {
				slog.Debug("Pruned stale aircraft", "callsigns", gone)
			}
		}
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// logListener logs lifecycle notifications.
type logListener struct{}

func (logListener) PhysicallyAddingRemoteModelFailed(ac sim.Aircraft, disabled bool, message string) {
	slog.Warn("Adding aircraft failed", "callsign", ac.Callsign, "model", ac.ModelString, "disabled", disabled, "message", message)
}

func (logListener) ConnectionStatusChanged(from, to sim.State) {
	slog.Info("Simulator state changed", "from", from, "to", to)
}

func (logListener) AircraftRenderingChanged(ac sim.Aircraft, rendered bool) {
	slog.Debug("Aircraft rendering changed", "callsign", ac.Callsign, "rendered", rendered)
}
