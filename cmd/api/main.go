package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventlocator/internal/auth"
	"eventlocator/internal/config"
	"eventlocator/internal/db"
	httpx "eventlocator/internal/http"
	"eventlocator/internal/notifications"
	"eventlocator/internal/observability"
	"eventlocator/internal/queue/notify"
	"eventlocator/internal/queue/redisclient"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is optional; skip when no collector is configured
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "eventlocator-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(3 * time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer func() { _ = redisClient.Close() }()

	// metrics registry with the standard process/go collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	queue := notify.NewQueue(redisClient)
	scheduler := notifications.NewScheduler(queue, cfg.NotifyLead, log)

	// set up routers with the full dependency set
	router := httpx.NewRouter(httpx.RouterDeps{
		Cfg:            cfg,
		Pool:           pool,
		Redis:          redisClient,
		Prom:           prom,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWT:            jwtManager,
		Scheduler:      scheduler,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
