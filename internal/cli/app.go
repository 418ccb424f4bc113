package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/willowtrack/healthrelay/internal/config"
	"github.com/willowtrack/healthrelay/internal/ledger"
	"github.com/willowtrack/healthrelay/internal/provider"
	"github.com/willowtrack/healthrelay/internal/store"
	syncp "github.com/willowtrack/healthrelay/internal/sync"
	"github.com/willowtrack/healthrelay/internal/telemetry"
)

// app bundles the wired components shared by the commands that touch the
// database and the provider. Close releases the database handle.
type app struct {
	cfg        *config.Config
	store      *store.Store
	ledger     *ledger.Ledger
	adapter    *provider.Adapter
	reconciler *syncp.Reconciler
	log        *slog.Logger
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// resolveConfigPath returns the explicit --config path or the default.
func resolveConfigPath(opts *RootOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	return config.DefaultPath()
}

// openApp loads the config, opens the database, and wires the provider
// adapter, ledger, and reconciler. The caller must call close when done.
func openApp(opts *RootOptions) (*app, func(), error) {
	logger := newLogger(opts.Verbose)

	cfgPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config from %q: %w\n\nRun 'healthrelay setup' if you have not configured HealthRelay yet", cfgPath, err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving database path: %w", err)
		}
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database at %q: %w", dbPath, err)
	}
	logger.Debug("database opened", "path", dbPath)

	led := ledger.New(st, logger)
	adapter := provider.NewAdapter(cfg.ProviderURL, cfg.ProviderToken, cfg.Source(), logger)
	reconciler := syncp.NewReconciler(st, led, adapter, logger)

	a := &app{
		cfg:        cfg,
		store:      st,
		ledger:     led,
		adapter:    adapter,
		reconciler: reconciler,
		log:        logger,
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}
	return a, closeFn, nil
}

// setupTelemetry initialises the optional OTel providers and returns a
// deferred-safe flush function. Telemetry failures never abort the command.
func setupTelemetry(ctx context.Context, a *app) func() {
	if a.cfg.Telemetry == nil {
		return func() {}
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: a.cfg.Telemetry.OTLPEndpoint,
		Insecure:     a.cfg.Telemetry.Insecure,
		ServiceName:  a.cfg.Telemetry.ServiceName,
		Headers:      a.cfg.Telemetry.Headers,
	})
	if err != nil {
		a.log.Error("telemetry setup failed, continuing without telemetry", "error", err)
		return func() {}
	}
	a.log.Info("telemetry enabled", "endpoint", a.cfg.Telemetry.OTLPEndpoint)

	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			a.log.Error("telemetry shutdown error", "error", err)
		}
	}
}
