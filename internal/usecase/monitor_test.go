package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/fusion"
	applogger "MarketSentry/pkg/logger"
)

type fakeMetrics struct{}

func (fakeMetrics) RecordTickSent(string, string)      {}
func (fakeMetrics) RecordError(string)                 {}
func (fakeMetrics) RecordAgentLatency(string, float64) {}
func (fakeMetrics) RecordRisk(string, float64)         {}
func (fakeMetrics) RecordIntervention(string)          {}

type fakeAgent struct {
	name string
	sig  models.Signal
	err  error
}

func (a *fakeAgent) Name() string    { return a.name }
func (a *fakeAgent) Pattern() string { return "test_pattern" }
func (a *fakeAgent) Analyze(ctx context.Context, mc *models.MarketContext) (models.Signal, error) {
	if a.err != nil {
		return models.Signal{}, a.err
	}
	s := a.sig
	s.Agent = a.name
	s.Asset = mc.Asset
	return s, nil
}
func (a *fakeAgent) Validate(sig models.Signal) bool {
	return sig.Reasoning != "" && sig.Confidence >= 0 && sig.Confidence <= 1
}

type fakeSink struct {
	mu  sync.Mutex
	ivs []*models.Intervention
}

func (s *fakeSink) Submit(ctx context.Context, iv *models.Intervention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ivs = append(s.ivs, iv)
	return nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestMonitor(t *testing.T, agents []*fakeAgent, sink *fakeSink) *Monitor {
	t.Helper()
	l := testLogger(t)
	builder := NewContextBuilder(nil, nil, nil, nil, nil, l)
	eng := fusion.New(0.75)

	m := NewMonitor(
		MonitorConfig{Assets: []string{"BTC"}, AgentTimeout: time.Second},
		builder,
		nil,
		eng,
		eng,
		nil,
		nil,
		sink,
		fakeMetrics{},
		l,
	)
	for _, a := range agents {
		m.agents = append(m.agents, a)
	}
	return m
}

func TestFailingAgentDegradesNotAborts(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, []*fakeAgent{
		{name: "chainflow", sig: models.Signal{Confidence: 0.5, Severity: models.SeverityNotice, Reasoning: "inflow"}},
		{name: "sentiment", err: errors.New("vendor down")},
	}, sink)

	risk, _, err := m.Assess(context.Background(), "BTC", time.Hour)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if risk.Errors["sentiment"] == "" {
		t.Fatalf("failed agent should land in Errors, got %v", risk.Errors)
	}
	if len(risk.Contributions) != 1 {
		t.Fatalf("surviving signal should still fuse, got %d contributions", len(risk.Contributions))
	}
}

func TestInvalidSignalIsDropped(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, []*fakeAgent{
		{name: "chainflow", sig: models.Signal{Confidence: 0.9, Severity: models.SeverityCritical}}, // no reasoning
	}, sink)

	risk, iv, err := m.Assess(context.Background(), "BTC", time.Hour)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if iv != nil {
		t.Fatalf("invalid signal must never reach the gate")
	}
	if risk.Errors["chainflow"] == "" {
		t.Fatalf("validation failure should be recorded, got %v", risk.Errors)
	}
}

func TestCriticalConsensusTriggersIntervention(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, []*fakeAgent{
		{name: "chainflow", sig: models.Signal{Confidence: 0.85, Severity: models.SeverityCritical, Reasoning: "concentrated exchange inflow"}},
		{name: "sentiment", sig: models.Signal{Confidence: 0.8, Severity: models.SeverityCritical, Reasoning: "coordinated astroturf"}},
	}, sink)

	risk, iv, err := m.Assess(context.Background(), "BTC", time.Hour)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if iv == nil {
		t.Fatalf("corroborated critical consensus should intervene (confidence %v, severity %s)", risk.Confidence, risk.Severity)
	}
	if iv.Action != models.ActionPause {
		t.Fatalf("expected PAUSE, got %s", iv.Action)
	}
	if len(sink.ivs) != 1 {
		t.Fatalf("intervention should reach the sink, got %d", len(sink.ivs))
	}
}

func TestLowConfidenceDoesNotIntervene(t *testing.T) {
	sink := &fakeSink{}
	m := newTestMonitor(t, []*fakeAgent{
		{name: "chainflow", sig: models.Signal{Confidence: 0.4, Severity: models.SeverityNotice, Reasoning: "mild inflow"}},
		{name: "sentiment", sig: models.Signal{Confidence: 0.3, Severity: models.SeverityNotice, Reasoning: "slightly busy"}},
	}, sink)

	_, iv, err := m.Assess(context.Background(), "BTC", time.Hour)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if iv != nil {
		t.Fatalf("low-confidence assessment must not intervene")
	}
	if len(sink.ivs) != 0 {
		t.Fatalf("sink should be empty")
	}
}
