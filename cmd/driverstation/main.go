// Command driverstation wires the protocol engine, the status fan-out,
// and the subscriber websocket transport into a running process: load
// config, init logger, construct components, start background loops,
// wait for a shutdown signal, then tear down with a bounded deadline.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dscore/driverstation/internal/config"
	"github.com/dscore/driverstation/internal/engine"
	"github.com/dscore/driverstation/internal/fanout"
	"github.com/dscore/driverstation/internal/kv"
	"github.com/dscore/driverstation/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := initLogger(cfg.Logging.Level)
	defer logger.Sync()

	eng := engine.New(engine.Config{
		SendPort:        cfg.Engine.SendPort,
		RecvPort:        cfg.Engine.RecvPort,
		TickPeriod:      cfg.Engine.TickPeriod(),
		WatchdogTimeout: cfg.Engine.WatchdogTimeout(),
		Logger:          logger.Named("engine"),
	})
	if err := eng.SetTeamNumber(cfg.Engine.TeamNumber); err != nil {
		logger.Fatal("invalid team number", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := fanout.NewHub(logger.Named("fanout.hub"))
	go hub.Run()

	fo := fanout.New(fanout.Config{
		LogRingCapacity: cfg.Fanout.LogRingCapacity,
		BroadcastPeriod: cfg.Fanout.BroadcastPeriod(),
		Logger:          logger.Named("fanout"),
	}, hub, eng)
	go fo.Run(ctx)
	go fanout.RunSystemStats(ctx, fo, cfg.Fanout.SystemStatsInterval(), logger.Named("fanout.stats"))

	var kvBridge *kv.RedisBridge
	if cfg.KV.RedisURL != "" {
		kvBridge, err = kv.Connect(cfg.KV.RedisURL, logger.Named("kv"))
		if err != nil {
			logger.Warn("key-value mirror unavailable, running with empty status map", zap.Error(err))
		} else {
			go kvBridge.Run(ctx, fo)
		}
	}

	if err := eng.Start(ctx); err != nil {
		logger.Fatal("engine failed to start", zap.Error(err))
	}

	wsServer := server.NewWebSocketServer(fo, cfg.Websocket.RateLimitPerMin, logger.Named("websocket"))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", wsServer.HealthHandler)

	var handler http.Handler = mux
	handler = wsServer.WithRequestLogging(handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Websocket.Host, cfg.Websocket.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	eng.Stop()
	if kvBridge != nil {
		kvBridge.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
}

func initLogger(level string) *zap.Logger {
	var zlevel zapcore.Level
	switch level {
	case "debug":
		zlevel = zapcore.DebugLevel
	case "warn":
		zlevel = zapcore.WarnLevel
	case "error":
		zlevel = zapcore.ErrorLevel
	default:
		zlevel = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zlevel)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
