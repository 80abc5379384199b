package i18n_test

import (
	"testing"

	"eventlocator/internal/i18n"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{name: "query_param_wins", candidates: []string{"es", "fr-FR,fr;q=0.9"}, want: "es"},
		{name: "header_only", candidates: []string{"", "fr-CA"}, want: "fr"},
		{name: "quality_values", candidates: []string{"", "en-US,en;q=0.9,es;q=0.8"}, want: "en"},
		{name: "unsupported_falls_back", candidates: []string{"de"}, want: "en"},
		{name: "garbage_falls_back", candidates: []string{";;;"}, want: "en"},
		{name: "nothing", candidates: nil, want: "en"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := i18n.Match(tt.candidates...)

			if got != tt.want {
				t.Fatalf("Match(%v) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestT(t *testing.T) {
	if got := i18n.T("es", "event_created"); got != "Evento creado con éxito" {
		t.Fatalf("unexpected es translation: %q", got)
	}

	// unknown language falls back to english
	if got := i18n.T("de", "event_created"); got != "Event created successfully" {
		t.Fatalf("unexpected fallback: %q", got)
	}

	// unknown key falls back to the key itself
	if got := i18n.T("en", "no_such_key"); got != "no_such_key" {
		t.Fatalf("unexpected missing-key result: %q", got)
	}
}
