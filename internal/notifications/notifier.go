package notifications

import (
	"context"
	"time"
)

type EventReminderInput struct {
	JobID     string
	EventID   string
	EventName string
	FireAt    time.Time
}

type Notifier interface {
	SendEventReminder(ctx context.Context, input EventReminderInput) error
}
