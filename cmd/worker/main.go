package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"eventlocator/internal/config"
	"eventlocator/internal/db"
	"eventlocator/internal/notifications"
	"eventlocator/internal/observability"
	"eventlocator/internal/queue/notify"
	"eventlocator/internal/queue/redisclient"
	"eventlocator/internal/queue/worker"
	"eventlocator/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

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

	prom := observability.NewProm(prometheus.NewRegistry())

	queue := notify.NewQueue(redisClient)
	deliveries := postgres.NewDeliveriesRepo(pool)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  1 * time.Second,
		WorkerID:      workerID,
		Concurrency:   4,
		ShutdownGrace: 10 * time.Second,
	}, queue, deliveries, notifier, prom, log)

	// probe endpoint on a side port so orchestrators can watch the worker
	healthSrv := &http.Server{
		Addr:              ":9090",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := healthSrv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
