package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/config"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/internal/simulator"
)

func main() {
	cfg := config.LoadFor("toto-simulator")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := simulator.NewServer(simulator.NewStore(time.Now), log)

	// Inicia servidor de métricas e healthcheck
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           sim.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("simulator listening", zap.String("addr", srv.Addr), zap.Duration("drift", cfg.SimDriftInterval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	// odds mudam sozinhas até o sinal de parada
	sim.Run(ctx, cfg.SimDriftInterval)

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
