package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventlocator/internal/domain/delivery"
	"eventlocator/internal/notifications"
	"eventlocator/internal/queue/notify"
)

type fakeQueue struct {
	claimDueFn func(ctx context.Context, now time.Time, limit int64) ([]notify.ReminderPayload, int, error)
	requeueFn  func(ctx context.Context, p notify.ReminderPayload, delay time.Duration) (bool, error)
}

func (f *fakeQueue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]notify.ReminderPayload, int, error) {
	return f.claimDueFn(ctx, now, limit)
}

func (f *fakeQueue) Requeue(ctx context.Context, p notify.ReminderPayload, delay time.Duration) (bool, error) {
	return f.requeueFn(ctx, p, delay)
}

type fakeDeliveries struct {
	tryStartFn   func(ctx context.Context, jobID, eventID string) error
	markSentFn   func(ctx context.Context, jobID string) error
	markFailedFn func(ctx context.Context, jobID, reason string) error
}

func (f *fakeDeliveries) TryStart(ctx context.Context, jobID, eventID string) error {
	return f.tryStartFn(ctx, jobID, eventID)
}

func (f *fakeDeliveries) MarkSent(ctx context.Context, eventID string) error {
	return f.markSentFn(ctx, eventID)
}

func (f *fakeDeliveries) MarkFailed(ctx context.Context, eventID, reason string) error {
	return f.markFailedFn(ctx, eventID, reason)
}

type fakeNotifier struct {
	sendFn func(ctx context.Context, in notifications.EventReminderInput) error
}

func (f *fakeNotifier) SendEventReminder(ctx context.Context, in notifications.EventReminderInput) error {
	return f.sendFn(ctx, in)
}

func payload() notify.ReminderPayload {
	return notify.ReminderPayload{
		JobID:     "job-1",
		EventID:   "event-1",
		EventName: "Go Meetup",
		FireAt:    time.Now(),
	}
}

func TestProcessOne_SendsAndMarksSent(t *testing.T) {
	var sentEvent string
	var notified bool

	deliveries := &fakeDeliveries{
		tryStartFn: func(_ context.Context, jobID, eventID string) error {
			if jobID != "job-1" || eventID != "event-1" {
				t.Fatalf("unexpected claim: job=%s event=%s", jobID, eventID)
			}
			return nil
		},
		markSentFn: func(_ context.Context, eventID string) error {
			sentEvent = eventID
			return nil
		},
		markFailedFn: func(context.Context, string, string) error {
			t.Fatal("mark failed should not be called")
			return nil
		},
	}

	notifier := &fakeNotifier{
		sendFn: func(_ context.Context, in notifications.EventReminderInput) error {
			notified = true
			if in.EventName != "Go Meetup" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil
		},
	}

	q := &fakeQueue{
		requeueFn: func(context.Context, notify.ReminderPayload, time.Duration) (bool, error) {
			t.Fatal("requeue should not be called")
			return false, nil
		},
	}

	w := New(Config{}, q, deliveries, notifier, nil, nil)
	w.processOne(context.Background(), payload())

	if !notified {
		t.Fatal("expected notifier to be called")
	}
	if sentEvent != "event-1" {
		t.Fatalf("expected MarkSent for event-1, got %q", sentEvent)
	}
}

func TestProcessOne_AlreadySentSkips(t *testing.T) {
	deliveries := &fakeDeliveries{
		tryStartFn: func(context.Context, string, string) error {
			return delivery.ErrAlreadySent
		},
	}

	notifier := &fakeNotifier{
		sendFn: func(context.Context, notifications.EventReminderInput) error {
			t.Fatal("duplicate redelivery must not notify again")
			return nil
		},
	}

	q := &fakeQueue{
		requeueFn: func(context.Context, notify.ReminderPayload, time.Duration) (bool, error) {
			t.Fatal("requeue should not be called")
			return false, nil
		},
	}

	w := New(Config{}, q, deliveries, notifier, nil, nil)
	w.processOne(context.Background(), payload())
}

func TestProcessOne_InProgressRequeues(t *testing.T) {
	deliveries := &fakeDeliveries{
		tryStartFn: func(context.Context, string, string) error {
			return delivery.ErrInProgress
		},
	}

	notifier := &fakeNotifier{
		sendFn: func(context.Context, notifications.EventReminderInput) error {
			t.Fatal("must not notify while another worker holds the claim")
			return nil
		},
	}

	requeued := false

	q := &fakeQueue{
		requeueFn: func(_ context.Context, p notify.ReminderPayload, _ time.Duration) (bool, error) {
			requeued = true
			return true, nil
		},
	}

	w := New(Config{}, q, deliveries, notifier, nil, nil)
	w.processOne(context.Background(), payload())

	if !requeued {
		t.Fatal("expected a requeue")
	}
}

func TestProcessOne_SendFailureMarksFailedAndRetries(t *testing.T) {
	var failedReason string

	deliveries := &fakeDeliveries{
		tryStartFn: func(context.Context, string, string) error { return nil },
		markSentFn: func(context.Context, string) error {
			t.Fatal("mark sent should not be called on failure")
			return nil
		},
		markFailedFn: func(_ context.Context, _ string, reason string) error {
			failedReason = reason
			return nil
		},
	}

	notifier := &fakeNotifier{
		sendFn: func(context.Context, notifications.EventReminderInput) error {
			return errors.New("provider down")
		},
	}

	var gotAttempts int
	requeued := false

	q := &fakeQueue{
		requeueFn: func(_ context.Context, p notify.ReminderPayload, _ time.Duration) (bool, error) {
			requeued = true
			gotAttempts = p.Attempts
			return true, nil
		},
	}

	w := New(Config{}, q, deliveries, notifier, nil, nil)

	p := payload()
	p.Attempts = 2
	w.processOne(context.Background(), p)

	if failedReason != "provider down" {
		t.Fatalf("got reason %q, want provider down", failedReason)
	}
	if !requeued {
		t.Fatal("expected a requeue")
	}
	if gotAttempts != 2 {
		t.Fatalf("requeue must see the original attempt count, got %d", gotAttempts)
	}
}

func TestProcessOne_AttemptsExhausted(t *testing.T) {
	deliveries := &fakeDeliveries{
		tryStartFn:   func(context.Context, string, string) error { return nil },
		markFailedFn: func(context.Context, string, string) error { return nil },
	}

	notifier := &fakeNotifier{
		sendFn: func(context.Context, notifications.EventReminderInput) error {
			return errors.New("provider down")
		},
	}

	q := &fakeQueue{
		requeueFn: func(context.Context, notify.ReminderPayload, time.Duration) (bool, error) {
			// cap reached
			return false, nil
		},
	}

	w := New(Config{}, q, deliveries, notifier, nil, nil)

	// should not panic or loop; the job is dropped after logging
	w.processOne(context.Background(), payload())
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{attempt: 0, min: 2 * time.Second, max: 2*time.Second + 250*time.Millisecond},
		{attempt: 1, min: 4 * time.Second, max: 4*time.Second + 250*time.Millisecond},
		{attempt: 3, min: 16 * time.Second, max: 16*time.Second + 250*time.Millisecond},
		{attempt: 20, min: 5 * time.Minute, max: 5*time.Minute + 250*time.Millisecond},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)

		if got < tt.min || got > tt.max {
			t.Fatalf("attempt %d: got %v, want in [%v, %v]", tt.attempt, got, tt.min, tt.max)
		}
	}
}
