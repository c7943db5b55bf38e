package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/drainwatch/internal/adapters/gateway"
	"github.com/okian/drainwatch/internal/adapters/http/api"
	"github.com/okian/drainwatch/internal/adapters/http/swagger"
	"github.com/okian/drainwatch/internal/adapters/repository"
	app "github.com/okian/drainwatch/internal/app"
	"github.com/okian/drainwatch/internal/config"
	"github.com/okian/drainwatch/pkg/logger"
)

// HTTP server timeout constants. Writes allow for a POST /runs over a large
// input.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString("drainwatch: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run is main without the process exit, so it can be driven from tests.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("drainwatch", flag.ContinueOnError)
	serve := fs.Bool("serve", false, "serve the report API instead of running one batch")
	reportPath := fs.String("report", "-", `JSON report destination; "-" writes to stdout, empty skips it`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	svc := app.New(append(app.FromConfig(cfg), app.WithStore(store))...)

	if *serve {
		return serveAPI(ctx, cfg, store, svc)
	}
	return batch(ctx, cfg, svc, *reportPath, stdout)
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.StorePath == "" {
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Get().Info(ctx, "using sqlite report store", logger.String("path", cfg.StorePath))
	return store, nil
}

// batch runs once over the configured files and writes the CSV outputs and
// the JSON report.
func batch(ctx context.Context, cfg *config.Config, svc *app.Service, reportPath string, stdout io.Writer) error {
	rep, err := svc.Run(ctx, app.Input{
		ReadingsPath: cfg.ReadingsPath,
		TicketsPath:  cfg.TicketsPath,
		VesselsPath:  cfg.VesselsPath,
	})
	if err != nil {
		return err
	}

	if err := gateway.WriteFiles(ctx, cfg.OutputDir, rep.Events, rep.Matches, rep.Daily); err != nil {
		return err
	}
	if err := gateway.WriteReportFile(cfg.OutputDir, rep); err != nil {
		return err
	}

	switch reportPath {
	case "":
	case "-":
		if err := gateway.WriteReport(stdout, rep); err != nil {
			return err
		}
	default:
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := gateway.WriteReport(f, rep); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close report: %w", err)
		}
	}

	logger.Get().Info(ctx, "outputs written", logger.String("dir", cfg.OutputDir))
	return nil
}

// serveAPI publishes an initial run, then serves the report API until ctx
// ends. A failed initial run is logged and the API answers 404 until a
// successful POST /runs.
func serveAPI(ctx context.Context, cfg *config.Config, store repository.Store, svc *app.Service) error {
	log := logger.Get()

	if _, err := svc.Rerun(ctx); err != nil {
		log.Warn(ctx, "initial run failed", logger.Error(err))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(store, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
