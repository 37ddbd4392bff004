package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/app"
	"github.com/joelkehle/mark3/internal/config"
	"github.com/joelkehle/mark3/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var (
		addr   = flag.String("addr", "", "Listen address (overrides server.addr)")
		webDir = flag.String("web-dir", "", "Directory containing web UI files (default: web/ relative to binary)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Environment)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("mark3 stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Log.Environment)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	web := resolveWebDir(cfg.Server.WebDir)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           components.Handler(web),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mark3 listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("web_dir", web),
			zap.String("network", cfg.Network().Name),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	return srv.Shutdown(sctx)
}

// resolveWebDir falls back to web/ next to the binary, then web/ in the
// working directory. An empty result disables static serving.
func resolveWebDir(dir string) string {
	if dir != "" {
		return dir
	}
	exe, _ := os.Executable()
	web := filepath.Join(filepath.Dir(exe), "..", "..", "web")
	if _, err := os.Stat(web); err == nil {
		return web
	}
	if _, err := os.Stat("web"); err == nil {
		return "web"
	}
	return ""
}
