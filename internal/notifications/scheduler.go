package notifications

import (
	"context"
	"log/slog"
	"time"

	"eventlocator/internal/domain/event"
	"eventlocator/internal/queue/notify"
)

// Enqueuer is the slice of the queue the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, p notify.ReminderPayload, delay time.Duration) error
}

// Scheduler enqueues one reminder per created event, fired lead time
// before the event starts. Scheduling is best effort: a queue outage
// must never fail event creation, so failures are logged and swallowed.
type Scheduler struct {
	queue Enqueuer
	lead  time.Duration
	log   *slog.Logger
	now   func() time.Time
}

func NewScheduler(queue Enqueuer, lead time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		queue: queue,
		lead:  lead,
		log:   log,
		now:   time.Now,
	}
}

// ReminderDelay computes how long to wait before firing a reminder for
// an event starting at eventDate. Events already inside the lead window
// (or in the past) fire immediately.
func (s *Scheduler) ReminderDelay(eventDate time.Time) time.Duration {
	fireAt := eventDate.Add(-s.lead)

	delay := fireAt.Sub(s.now())

	if delay < 0 {
		delay = 0
	}

	return delay
}

func (s *Scheduler) Schedule(ctx context.Context, ev event.Event) {
	if ev.EventDate.IsZero() {
		return
	}

	fireAt := ev.EventDate.Add(-s.lead)
	delay := s.ReminderDelay(ev.EventDate)

	p := notify.NewReminder(ev.ID, ev.Title, fireAt)

	if err := s.queue.Enqueue(ctx, p, delay); err != nil {
		s.log.ErrorContext(ctx, "reminder schedule failed",
			"event_id", ev.ID,
			"job_id", p.JobID,
			"error", err,
		)
		return
	}

	s.log.InfoContext(ctx, "reminder scheduled",
		"event_id", ev.ID,
		"job_id", p.JobID,
		"fire_at", fireAt,
		"delay_ms", delay.Milliseconds(),
	)
}
