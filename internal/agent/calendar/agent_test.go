package calendar

import (
	"context"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func candlesWithSpike(base time.Time) []models.Candle {
	out := make([]models.Candle, 30)
	for i := range out {
		out[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Close:  42000,
			Volume: 100,
		}
	}
	out[len(out)-1].Volume = 3000
	out[len(out)-1].Close = 40500
	return out
}

func TestNoAnomalyScoresNone(t *testing.T) {
	base := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	flat := make([]models.Candle, 30)
	for i := range flat {
		flat[i] = models.Candle{Bucket: base.Add(time.Duration(i) * time.Minute), Close: 42000, Volume: 100}
	}
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: base.Add(30 * time.Minute),
		Window:    time.Hour,
		Candles:   flat,
		Events: []models.MacroEvent{
			{Name: "US CPI", Importance: "high", Scheduled: base.Add(40 * time.Minute)},
		},
	}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Severity != models.SeverityNone {
		t.Fatalf("event without anomaly should be benign, got %s", sig.Severity)
	}
}

func TestAnomalyNearHighImportanceEvent(t *testing.T) {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	now := base.Add(30 * time.Minute)
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: now,
		Window:    time.Hour,
		Candles:   candlesWithSpike(base),
		Events: []models.MacroEvent{
			{Name: "US CPI", Importance: "high", Scheduled: now.Add(5 * time.Minute)},
		},
	}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence < 0.3 {
		t.Fatalf("anomaly minutes before CPI should score, got %v", sig.Confidence)
	}
	if sig.Evidence["event_proximity"] < 0.5 {
		t.Fatalf("proximity evidence should be strong, got %v", sig.Evidence["event_proximity"])
	}
}

func TestWeekendThinLiquidity(t *testing.T) {
	// Saturday
	base := time.Date(2024, 2, 3, 3, 0, 0, 0, time.UTC)
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: base.Add(30 * time.Minute),
		Window:    time.Hour,
		Candles:   candlesWithSpike(base),
	}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Evidence["thin_liquidity"] != 1.0 {
		t.Fatalf("weekend should register full thin-liquidity, got %v", sig.Evidence["thin_liquidity"])
	}
	if sig.Confidence < 0.3 {
		t.Fatalf("weekend anomaly should score, got %v", sig.Confidence)
	}
}

func TestWeekdayAnomalyWithoutEventIsCapped(t *testing.T) {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: base.Add(30 * time.Minute),
		Window:    time.Hour,
		Candles:   candlesWithSpike(base),
	}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence > 0.25 {
		t.Fatalf("weekday anomaly with no event should cap at 0.25, got %v", sig.Confidence)
	}
}
