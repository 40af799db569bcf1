package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"relaychat/internal/infrastructure/configs"
	"relaychat/internal/infrastructure/logging"
	"relaychat/internal/infrastructure/metrics"
	"relaychat/internal/infrastructure/ratelimiter"
	"relaychat/internal/infrastructure/registry"
	"relaychat/internal/infrastructure/tracing"
	"relaychat/internal/infrastructure/ws"
	"relaychat/internal/presentation/api"
	"relaychat/internal/presentation/handler/health"
	"relaychat/internal/presentation/handler/rooms"
)

const serviceName = "relaychat"

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.FilePath)
	defer logger.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	roomRegistry := registry.New(cfg.Room.CodeLength)
	core := ws.NewCore(roomRegistry, logger, m)
	go core.Run(ctx)

	roomHandler := rooms.NewHandler(roomRegistry, core, cfg.HTTP.AllowedOrigins, logger)
	healthHandler := health.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, *roomHandler, *healthHandler, logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
