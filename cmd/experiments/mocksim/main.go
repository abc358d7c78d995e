// Command mocksim runs the traffic manager against the mock simulator with
// synthetic traffic and prints the status once a second.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"swiftgo/pkg/aircraft"
	"swiftgo/pkg/db"
	"swiftgo/pkg/metrics"
	"swiftgo/pkg/sim/mocksim"
	"swiftgo/pkg/store"
	"swiftgo/pkg/traffic"
)

type options struct {
	aircraft   int
	maxObjects int
	latency    time.Duration
	duration   time.Duration
	failTitle  string
}

func main() {
	var opts options
	flag.IntVar(&opts.aircraft, "aircraft", 30, "Number of synthetic aircraft")
	flag.IntVar(&opts.maxObjects, "max-objects", 0, "Simulator object ceiling, 0 for none")
	flag.DurationVar(&opts.latency, "latency", 20*time.Millisecond, "Simulated answer latency")
	flag.DurationVar(&opts.duration, "duration", 0, "Stop after this long, 0 runs until interrupted")
	flag.StringVar(&opts.failTitle, "fail-title", "", "Model title the simulator refuses to create")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	fmt.Println("Mock Simulator Started. Press Ctrl+C to exit.")
	last, err := soak(ctx, opts, func(st traffic.Status) {
		fmt.Printf("[%s] State: %s | Rendered: %d | Queued: %d | Added: %d | Failed: %d | Exceptions: %d\n",
			time.Now().Format("15:04:05"), st.State, len(st.Rendered), len(st.Queued),
			st.Stats.Added, st.Stats.PermanentFailures, st.Stats.Exceptions)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "soak failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDone: %d dispatches, %d messages, max dispatch %s\n",
		last.Stats.Dispatches, last.Stats.Messages, last.Stats.DispatchTimeMax)
}

// soak drives a manager until ctx ends and reports the status every second.
func soak(ctx context.Context, opts options, report func(traffic.Status)) (traffic.Status, error) {
	simCfg := mocksim.DefaultConfig()
	simCfg.Latency = opts.latency
	simCfg.MaxObjects = opts.maxObjects
	if opts.failTitle != "" {
		simCfg.FailTitles = []string{opts.failTitle}
	}
	mock := mocksim.New(simCfg)

	met, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return traffic.Status{}, err
	}
	dbConn, err := db.Init(":memory:")
	if err != nil {
		return traffic.Status{}, err
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	remote := aircraft.NewRemoteProvider(aircraft.DefaultHistory, aircraft.DefaultMaxExtrapolation)
	cfg := traffic.DefaultConfig()
	cfg.MaxAircraft = max(opts.aircraft, 1)
	cfg.DefaultModel = "Airbus A320 Neo Asobo"
	mgr := traffic.New(cfg, traffic.Deps{
		API:     mock,
		Remote:  remote,
		Own:     aircraft.NewOwnProvider(),
		Models:  aircraft.NewMatcher(st, cfg.DefaultModel),
		Metrics: met,
	})
	gen := mocksim.NewTrafficGenerator(simCfg.StartLat, simCfg.StartLon, opts.aircraft, uint64(time.Now().UnixNano()), time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mgr.Run(gctx) })
	g.Go(func() error { return gen.Run(gctx, time.Second, remote) })
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				report(mgr.Status())
			}
		}
	})
	err = g.Wait()
	return mgr.Status(), err
}
