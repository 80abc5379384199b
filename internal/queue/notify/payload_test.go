package notify_test

import (
	"errors"
	"testing"
	"time"

	"eventlocator/internal/queue/notify"
)

func TestEncodeDecodePayload(t *testing.T) {
	fireAt := time.Date(2026, 9, 1, 17, 30, 0, 0, time.UTC)

	p := notify.NewReminder("event-1", "Go Meetup", fireAt)

	if p.JobID == "" {
		t.Fatal("expected a generated job id")
	}

	raw, err := notify.EncodePayload(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := notify.DecodePayload(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.EventID != "event-1" || got.EventName != "Go Meetup" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.FireAt.Equal(fireAt) {
		t.Fatalf("fireAt mismatch: got %v want %v", got.FireAt, fireAt)
	}
}

func TestEncodePayload_MissingEventID(t *testing.T) {
	p := notify.ReminderPayload{JobID: "j1"}

	_, err := notify.EncodePayload(p)

	if !errors.Is(err, notify.ErrInvalidPayload) {
		t.Fatalf("got %v, want ErrInvalidPayload", err)
	}
}

func TestDecodePayload_Garbage(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "not_json", raw: []byte("{{{")},
		{name: "missing_ids", raw: []byte(`{"eventName":"x"}`)},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := notify.DecodePayload(tt.raw)

			if !errors.Is(err, notify.ErrInvalidPayload) {
				t.Fatalf("got %v, want ErrInvalidPayload", err)
			}
		})
	}
}
