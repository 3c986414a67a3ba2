package usecase

import (
	"context"
	"testing"

	"MarketSentry/internal/domain/models"
)

func TestDemoReplayProducesIntervention(t *testing.T) {
	risk, iv, signals, err := NewDemo().Run(context.Background())
	if err != nil {
		t.Fatalf("demo run: %v", err)
	}

	if len(signals) != 3 {
		t.Fatalf("expected all three agents to emit valid signals, got %d", len(signals))
	}
	for _, s := range signals {
		if s.Reasoning == "" {
			t.Fatalf("agent %s emitted a signal without reasoning", s.Agent)
		}
	}

	if risk.Explanation == "" {
		t.Fatalf("fused assessment must carry an explanation")
	}
	if risk.Confidence < 0.8 || risk.Severity != models.SeverityCritical {
		t.Fatalf("replayed dump should cross the gate, got %v/%s", risk.Confidence, risk.Severity)
	}

	if iv == nil {
		t.Fatalf("expected an intervention")
	}
	if iv.Action != models.ActionPause {
		t.Fatalf("expected PAUSE, got %s", iv.Action)
	}
	if iv.HistoricalPrecedent == "" {
		t.Fatalf("intervention should cite the seeded 2024-02-05 precedent")
	}
}

func TestReplayContextIsDeterministic(t *testing.T) {
	a, b := ReplayContext(), ReplayContext()
	if a.Timestamp != b.Timestamp || len(a.Candles) != len(b.Candles) || len(a.Posts) != len(b.Posts) {
		t.Fatalf("replay context must be reproducible")
	}
	if a.Candles[len(a.Candles)-1].Volume != b.Candles[len(b.Candles)-1].Volume {
		t.Fatalf("replay candles must match")
	}
}
