package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the default delivery side effect: it emits a structured
// log line per reminder. Swap in a real provider behind the Notifier
// interface when one exists.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendEventReminder(ctx context.Context, in EventReminderInput) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	n.log.InfoContext(ctx, "notification.event_reminder",
		"job_id", in.JobID,
		"event_id", in.EventID,
		"event_name", in.EventName,
		"fire_at", in.FireAt,
	)
	return nil
}
