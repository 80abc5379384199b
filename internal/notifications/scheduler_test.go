package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventlocator/internal/domain/event"
	"eventlocator/internal/queue/notify"
)

type fakeEnqueuer struct {
	enqueueFn func(ctx context.Context, p notify.ReminderPayload, delay time.Duration) error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, p notify.ReminderPayload, delay time.Duration) error {
	return f.enqueueFn(ctx, p, delay)
}

func TestReminderDelay(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		eventDate time.Time
		want      time.Duration
	}{
		{
			name:      "one hour out fires in 30 minutes",
			eventDate: now.Add(1 * time.Hour),
			want:      30 * time.Minute,
		},
		{
			name:      "inside the lead window fires immediately",
			eventDate: now.Add(10 * time.Minute),
			want:      0,
		},
		{
			name:      "already past fires immediately",
			eventDate: now.Add(-2 * time.Hour),
			want:      0,
		},
		{
			name:      "exactly at the lead boundary",
			eventDate: now.Add(30 * time.Minute),
			want:      0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(nil, 30*time.Minute, nil)
			s.now = func() time.Time { return now }

			got := s.ReminderDelay(tt.eventDate)

			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedule_EnqueuesWithLead(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	eventDate := now.Add(1 * time.Hour)

	var gotPayload notify.ReminderPayload
	var gotDelay time.Duration

	q := &fakeEnqueuer{
		enqueueFn: func(_ context.Context, p notify.ReminderPayload, delay time.Duration) error {
			gotPayload = p
			gotDelay = delay
			return nil
		},
	}

	s := NewScheduler(q, 30*time.Minute, nil)
	s.now = func() time.Time { return now }

	s.Schedule(context.Background(), event.Event{
		ID:        "event-1",
		Title:     "Go Meetup",
		EventDate: eventDate,
	})

	if gotPayload.EventID != "event-1" || gotPayload.EventName != "Go Meetup" {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
	if !gotPayload.FireAt.Equal(eventDate.Add(-30 * time.Minute)) {
		t.Fatalf("unexpected fireAt: %v", gotPayload.FireAt)
	}
	if gotDelay != 30*time.Minute {
		t.Fatalf("got delay %v, want 30m", gotDelay)
	}
}

func TestSchedule_SwallowsQueueFailure(t *testing.T) {
	eventDate := time.Now().Add(2 * time.Hour)

	q := &fakeEnqueuer{
		enqueueFn: func(context.Context, notify.ReminderPayload, time.Duration) error {
			return errors.New("redis down")
		},
	}

	s := NewScheduler(q, 30*time.Minute, nil)

	// must not panic or propagate: event creation already succeeded
	s.Schedule(context.Background(), event.Event{
		ID:        "event-1",
		Title:     "Go Meetup",
		EventDate: eventDate,
	})
}

func TestSchedule_NoDateNoJob(t *testing.T) {
	called := false

	q := &fakeEnqueuer{
		enqueueFn: func(context.Context, notify.ReminderPayload, time.Duration) error {
			called = true
			return nil
		},
	}

	s := NewScheduler(q, 30*time.Minute, nil)
	s.Schedule(context.Background(), event.Event{ID: "event-1"})

	if called {
		t.Fatal("expected no enqueue for an event without a date")
	}
}
