package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPayload = errors.New("invalid reminder payload")
)

// Redelivery cap for a single reminder before the queue gives up on it.
const MaxAttempts = 5

// ReminderPayload is the unit of work on the delayed queue: one reminder
// per event, keyed by event id/name. Transient; never persisted outside
// the broker.
type ReminderPayload struct {
	JobID     string    `json:"jobId"`
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	FireAt    time.Time `json:"fireAt"`
	Attempts  int       `json:"attempts"`
}

func NewReminder(eventID, eventName string, fireAt time.Time) ReminderPayload {
	return ReminderPayload{
		JobID:     uuid.NewString(),
		EventID:   eventID,
		EventName: eventName,
		FireAt:    fireAt.UTC(),
	}
}

func EncodePayload(p ReminderPayload) ([]byte, error) {
	if err := ValidatePayload(p); err != nil {
		return nil, err
	}

	b, err := json.Marshal(p)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return b, nil
}

func DecodePayload(raw []byte) (ReminderPayload, error) {
	if len(raw) == 0 {
		return ReminderPayload{}, ErrInvalidPayload
	}

	var p ReminderPayload

	if err := json.Unmarshal(raw, &p); err != nil {
		return ReminderPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := ValidatePayload(p); err != nil {
		return ReminderPayload{}, err
	}

	return p, nil
}

func ValidatePayload(p ReminderPayload) error {
	if strings.TrimSpace(p.JobID) == "" || strings.TrimSpace(p.EventID) == "" {
		return ErrInvalidPayload
	}

	return nil
}
