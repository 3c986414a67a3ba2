package fusion

import (
	"context"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func sig(agent string, conf float64, sev, reason string) models.Signal {
	return models.Signal{
		Agent:      agent,
		Asset:      "BTC",
		Timestamp:  time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC),
		Confidence: conf,
		Severity:   sev,
		Reasoning:  reason,
	}
}

func TestSynthesizeSkipsInvalidSignals(t *testing.T) {
	e := New(0.75)
	signals := []models.Signal{
		sig("chainflow", 0.7, models.SeverityWarning, "exchange inflow spike"),
		{Agent: "sentiment", Confidence: 0.9, Severity: models.SeverityCritical}, // no reasoning
	}
	risk, err := e.Synthesize(context.Background(), signals, nil, nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(risk.Contributions) != 1 {
		t.Fatalf("invalid signal should be skipped, got %d contributions", len(risk.Contributions))
	}
	if risk.Explanation == "" {
		t.Fatalf("explanation must not be empty")
	}
}

func TestNoSignalsYieldsBenignScore(t *testing.T) {
	risk, err := New(0.75).Synthesize(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if risk.Severity != models.SeverityNone || risk.Confidence != 0 {
		t.Fatalf("empty input should be benign, got %s/%v", risk.Severity, risk.Confidence)
	}
	if risk.Explanation == "" {
		t.Fatalf("even a benign score needs an explanation")
	}
}

func TestCorroborationOutranksLoneAgent(t *testing.T) {
	e := New(0.75)

	lone, err := e.Synthesize(context.Background(), []models.Signal{
		sig("chainflow", 0.7, models.SeverityWarning, "inflow spike"),
		sig("sentiment", 0.1, models.SeverityNone, "quiet"),
	}, nil, nil)
	if err != nil {
		t.Fatalf("synthesize lone: %v", err)
	}

	pair, err := e.Synthesize(context.Background(), []models.Signal{
		sig("chainflow", 0.7, models.SeverityWarning, "inflow spike"),
		sig("sentiment", 0.7, models.SeverityWarning, "coordinated posting"),
	}, nil, nil)
	if err != nil {
		t.Fatalf("synthesize pair: %v", err)
	}

	if pair.Confidence <= lone.Confidence {
		t.Fatalf("corroborated signals must outrank a lone agent: pair %v vs lone %v", pair.Confidence, lone.Confidence)
	}
}

func TestPrecedentLiftAndCitation(t *testing.T) {
	e := New(0.75)
	signals := []models.Signal{
		sig("chainflow", 0.75, models.SeverityWarning, "inflow spike"),
		sig("sentiment", 0.75, models.SeverityWarning, "astroturf wave"),
	}
	ps := []models.Precedent{
		{ID: "ep-1", Name: "2024-02-05 BTC coordinated dump"},
		{ID: "ep-2", Name: "unrelated episode"},
	}

	base, err := e.Synthesize(context.Background(), signals, nil, nil)
	if err != nil {
		t.Fatalf("synthesize base: %v", err)
	}
	lifted, err := e.Synthesize(context.Background(), signals, ps, []float64{0.92, 0.40})
	if err != nil {
		t.Fatalf("synthesize lifted: %v", err)
	}

	if lifted.Confidence <= base.Confidence {
		t.Fatalf("strong precedent should lift confidence: %v vs %v", lifted.Confidence, base.Confidence)
	}
	if len(lifted.SimilarEvents) != 1 || lifted.SimilarEvents[0].ID != "ep-1" {
		t.Fatalf("only the >=0.75 match should be cited, got %v", lifted.SimilarEvents)
	}
}

func TestDecideGate(t *testing.T) {
	e := New(0.75)

	if _, ok := e.Decide(models.RiskScore{Confidence: 0.85, Severity: models.SeverityWarning}); ok {
		t.Fatalf("non-critical severity must not trigger intervention")
	}
	if _, ok := e.Decide(models.RiskScore{Confidence: 0.79, Severity: models.SeverityCritical}); ok {
		t.Fatalf("confidence below 0.8 must not trigger intervention")
	}

	risk := models.RiskScore{
		Asset:       "BTC",
		Confidence:  0.86,
		Severity:    models.SeverityCritical,
		Explanation: "corroborated dump pattern",
		SimilarEvents: []models.PrecedentRef{
			{ID: "ep-1", Name: "2024-02-05 BTC coordinated dump", Similarity: 0.92},
		},
	}
	iv, ok := e.Decide(risk)
	if !ok {
		t.Fatalf("gate should pass for critical 0.86")
	}
	if iv.Action != models.ActionPause {
		t.Fatalf("expected PAUSE action, got %s", iv.Action)
	}
	if iv.Reasoning == "" {
		t.Fatalf("intervention reasoning must not be empty")
	}
	if iv.HistoricalPrecedent == "" {
		t.Fatalf("cited precedent should flow into the intervention")
	}
}
