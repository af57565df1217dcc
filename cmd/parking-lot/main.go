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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"parking-lot-manager/internal/config"
	"parking-lot-manager/internal/jobs"
	"parking-lot-manager/internal/logging"
	"parking-lot-manager/internal/parking"
	"parking-lot-manager/internal/server"
)

var (
	mode = flag.String("mode", "cli", "Mode to run: cli, server, or both")
	port = flag.String("port", "", "Port for HTTP server (defaults to APP_PORT)")
)

type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	lot       *parking.InstrumentedLot
	billing   *parking.InstrumentedBilling
	reports   *parking.ReportingService
	watch     *jobs.OverstayWatch
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.shutdown()

	if cfg.OverstaySchedule != "" {
		if err := a.watch.Start(ctx, cfg.OverstaySchedule); err != nil {
			logging.Error(ctx, "overstay watch disabled", logging.Err(err))
		}
	}

	switch *mode {
	case "cli":
		return a.runCLI(ctx)
	case "server":
		return a.runServer(ctx)
	case "both":
		return a.runBoth(ctx)
	}
	return fmt.Errorf("invalid mode %q: must be cli, server, or both", *mode)
}

// build wires every component in dependency order: catalog, fine policy,
// lot, billing, reporting, then the instrumented and outer layers.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	telemetry, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		slog.Warn("telemetry unavailable, continuing without export", "error", err)
		telemetry = parking.NewNoopTelemetryProvider()
	}

	logging.Init(cfg.ServiceName, cfg.Environment)

	catalog, err := parking.NewSpotCatalog(parking.DefaultLayout(cfg.Floors), cfg.Rates)
	if err != nil {
		return nil, fmt.Errorf("building spot catalog: %w", err)
	}
	policy := parking.NewFinePolicy(cfg.FineKind, cfg.FineAmounts)
	lot := parking.NewLotService(catalog, policy, parking.WithCardRate(cfg.CardRate))
	billing := parking.NewBillingService(lot)
	reports := parking.NewReportingService(lot, billing)

	instrumentedLot, err := parking.NewInstrumentedLot(lot, telemetry)
	if err != nil {
		return nil, fmt.Errorf("instrumenting lot: %w", err)
	}
	instrumentedBilling, err := parking.NewInstrumentedBilling(billing, telemetry)
	if err != nil {
		return nil, fmt.Errorf("instrumenting billing: %w", err)
	}

	prometheus.MustRegister(parking.NewLotCollector(reports))

	logging.Info(ctx, "parking lot ready",
		"floors", cfg.Floors,
		"spots", lot.Capacity(),
		"fine_strategy", policy.Kind.String(),
	)

	return &app{
		cfg:       cfg,
		telemetry: telemetry,
		lot:       instrumentedLot,
		billing:   instrumentedBilling,
		reports:   reports,
		watch:     jobs.NewOverstayWatch(reports, telemetry.Tracer()),
	}, nil
}

func (a *app) newShell() *parking.Shell {
	return parking.NewShell(a.lot, a.billing, a.reports, a.telemetry, os.Stdin, os.Stdout)
}

func (a *app) newServer() *server.Server {
	return server.NewServer(a.cfg.Port, server.NewHandler(a.lot, a.billing, a.reports, a.cfg.ServiceName))
}

// runCLI returns when stdin is exhausted or on a signal. A shell blocked on
// input is abandoned on shutdown.
func (a *app) runCLI(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.newShell().Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Info(ctx, "received shutdown signal")
	}
	return nil
}

func (a *app) runServer(ctx context.Context) error {
	srv := a.newServer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return shutdownServer(srv)
	})
	return g.Wait()
}

// runBoth serves HTTP while the shell reads stdin. The shell exiting stops
// the server too.
func (a *app) runBoth(ctx context.Context) error {
	srv := a.newServer()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		a.newShell().Run(ctx)
		logging.Info(ctx, "CLI exited")
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return shutdownServer(srv)
	})
	return g.Wait()
}

func shutdownServer(srv *server.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) shutdown() {
	a.watch.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logging.Info(ctx, "shutting down telemetry")
	if err := a.telemetry.Shutdown(ctx); err != nil {
		slog.Error("error shutting down telemetry", "error", err)
	}
}
