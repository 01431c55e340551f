package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tbc-seguimiento/internal/config"
	"tbc-seguimiento/internal/httpapi"
	"tbc-seguimiento/internal/logger"
	"tbc-seguimiento/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "tbc-seguimiento")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	seguimiento, err := service.NewSeguimientoService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create seguimiento service",
			zap.Error(err),
		)
	}
	defer seguimiento.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// transporte HTTP: consulta y gestión de alertas, reevaluación a demanda
	handler := httpapi.NewAlertasHandler(seguimiento.AlertasRepo(), seguimiento, seguimiento.ResumenManager(), log)
	router := httpapi.NewRouter(log)
	router.RegisterSeguimientoRoutes(handler)
	server := service.NewServer(cfg.HTTP.Addr, router, log)

	errChan := make(chan error, 2)

	go func() {
		if err := seguimiento.Start(ctx); err != nil {
			errChan <- fmt.Errorf("seguimiento service: %w", err)
		}
	}()

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
	case err := <-errChan:
		log.Error("Service error",
			zap.Error(err),
		)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server",
			zap.Error(err),
		)
	}

	log.Info("Seguimiento service stopped")
}
