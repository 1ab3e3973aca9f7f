package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"charge-optimizer/internal/api/handlers"
	"charge-optimizer/internal/api/middleware"
	"charge-optimizer/internal/config"
	"charge-optimizer/internal/logging"
	"charge-optimizer/internal/metrics"
	"charge-optimizer/internal/optimizer"
	"charge-optimizer/internal/solver"
)

func main() {
	cfg, err := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.NoColor)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	highs := solver.NewHiGHS(cfg.SolverOptions(), logger)
	opt := optimizer.New(highs, cfg.OptimizerConfig(), logger)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	handlers.NewOptimizeHandler(opt, handlers.OptimizeOptions{
		NonOptimalAsError: cfg.NonOptimalAsError(),
		Timeout:           cfg.Server.RequestTimeout.Duration,
	}, logger).Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout.Duration+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
