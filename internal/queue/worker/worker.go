package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"eventlocator/internal/domain/delivery"
	"eventlocator/internal/notifications"
	"eventlocator/internal/observability"
	"eventlocator/internal/queue/notify"
)

type Queue interface {
	ClaimDue(ctx context.Context, now time.Time, limit int64) ([]notify.ReminderPayload, int, error)
	Requeue(ctx context.Context, p notify.ReminderPayload, delay time.Duration) (bool, error)
}

// DeliveryStore dedupes at-least-once redelivery. Claims key on the
// event, not the queue job, so two jobs for the same event cannot both
// send.
type DeliveryStore interface {
	TryStart(ctx context.Context, jobID, eventID string) error
	MarkSent(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, reason string) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ClaimBatch    int64
	ShutdownGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.WorkerID == "" {
		host, _ := os.Hostname()
		c.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.ClaimBatch <= 0 {
		c.ClaimBatch = 10
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
	return c
}

type Worker struct {
	cfg        Config
	queue      Queue
	deliveries DeliveryStore
	notifier   notifications.Notifier
	prom       *observability.Prom
	log        *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, deliveries DeliveryStore, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:        cfg.withDefaults(),
		queue:      queue,
		deliveries: deliveries,
		notifier:   notifier,
		prom:       prom,
		log:        log,
	}
}

// Run polls the queue until ctx is cancelled. In-flight sends are given
// ShutdownGrace to drain before returning.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.cfg.Concurrency)

	// claimed jobs keep running through the drain window even after the
	// poll context is cancelled
	procCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			w.setReady(false)

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(w.cfg.ShutdownGrace):
				w.log.Warn("shutdown grace expired with jobs still in flight")
			}
			return nil

		case <-ticker.C:
			claimed, dropped, err := w.queue.ClaimDue(ctx, time.Now(), w.cfg.ClaimBatch)

			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.log.Error("claim error", "error", err)
				continue
			}

			if dropped > 0 {
				w.log.Warn("dropped undecodable queue members", "count", dropped)
			}

			for _, p := range claimed {
				p := p

				wg.Add(1)
				sem <- struct{}{}

				go func() {
					defer wg.Done()
					defer func() { <-sem }()

					w.processOne(procCtx, p)
				}()
			}
		}
	}
}

// processOne runs the full lifecycle of a claimed reminder: claim the
// delivery row, send, record the outcome. Duplicate claims from
// at-least-once redelivery are resolved by the deliveries table.
func (w *Worker) processOne(ctx context.Context, p notify.ReminderPayload) {
	start := time.Now()

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	err := w.deliveries.TryStart(ctx, p.JobID, p.EventID)

	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrAlreadySent):
			// duplicate redelivery, the reminder already went out
			w.observe("done", start)
			w.log.Info("skipping already sent reminder", "job_id", p.JobID, "event_id", p.EventID)
			return

		case errors.Is(err, delivery.ErrInProgress):
			// another worker holds the claim; back off briefly
			w.requeue(ctx, p, 5*time.Second, start)
			return

		default:
			w.log.Error("delivery claim failed", "job_id", p.JobID, "error", err)
			w.requeue(ctx, p, ExponentialBackoff(p.Attempts), start)
			return
		}
	}

	sendErr := w.notifier.SendEventReminder(ctx, notifications.EventReminderInput{
		JobID:     p.JobID,
		EventID:   p.EventID,
		EventName: p.EventName,
		FireAt:    p.FireAt,
	})

	if sendErr != nil {
		if err := w.deliveries.MarkFailed(ctx, p.EventID, sendErr.Error()); err != nil {
			w.log.Error("mark failed error", "job_id", p.JobID, "error", err)
		}

		w.requeue(ctx, p, ExponentialBackoff(p.Attempts), start)
		return
	}

	if err := w.deliveries.MarkSent(ctx, p.EventID); err != nil {
		// the reminder went out; a stale 'sending' row is the lesser evil
		w.log.Error("mark sent error", "job_id", p.JobID, "error", err)
	}

	w.observe("done", start)
	w.log.Info("reminder sent",
		"job_id", p.JobID,
		"event_id", p.EventID,
		"worker_id", w.cfg.WorkerID,
		"attempts", p.Attempts,
	)
}

func (w *Worker) requeue(ctx context.Context, p notify.ReminderPayload, delay time.Duration, start time.Time) {
	requeued, err := w.queue.Requeue(ctx, p, delay)

	if err != nil {
		w.observe("failed", start)
		w.log.Error("requeue error, reminder lost", "job_id", p.JobID, "error", err)
		return
	}

	if !requeued {
		w.observe("failed", start)
		w.log.Error("reminder exhausted attempts",
			"job_id", p.JobID,
			"event_id", p.EventID,
			"attempts", p.Attempts,
		)
		return
	}

	w.observe("retry", start)
	w.log.Warn("reminder requeued",
		"job_id", p.JobID,
		"delay", delay,
		"attempts", p.Attempts+1,
	)
}

func (w *Worker) observe(result string, start time.Time) {
	if w.prom == nil {
		return
	}
	w.prom.ObserveJob(result, time.Since(start))
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
