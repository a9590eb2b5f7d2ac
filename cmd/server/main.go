package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteen/internal/auth"
	"canteen/internal/config"
	"canteen/internal/infrastructure/logger"
	"canteen/internal/infrastructure/mysql"
	"canteen/internal/menu"
	"canteen/internal/order"
	"canteen/internal/realtime"
	"canteen/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	hub := realtime.NewHub(zapLogger)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	menuCtrl, menuSvc := menu.NewModule(db, zapLogger)
	orderCtrl := order.NewModule(db, cfg, menuSvc, hub, zapLogger)
	wsCtrl := realtime.NewController(hub, zapLogger)

	router := server.NewRouter(orderCtrl, menuCtrl, wsCtrl, verifier, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
