package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

type fakePublisher struct {
	mu   sync.Mutex
	ivs  []*models.Intervention
	fail bool
}

func (p *fakePublisher) PublishIntervention(ctx context.Context, iv *models.Intervention) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.ivs = append(p.ivs, iv)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ivs)
}

type fakeMetrics struct{}

func (fakeMetrics) RecordTickSent(string, string)      {}
func (fakeMetrics) RecordError(string)                 {}
func (fakeMetrics) RecordAgentLatency(string, float64) {}
func (fakeMetrics) RecordRisk(string, float64)         {}
func (fakeMetrics) RecordIntervention(string)          {}

func pauseBTC() *models.Intervention {
	return &models.Intervention{
		Action:    models.ActionPause,
		Asset:     "BTC",
		Reasoning: "corroborated dump pattern",
		IssuedAt:  time.Now().UTC(),
	}
}

func TestSubmitDelivers(t *testing.T) {
	pub := &fakePublisher{}
	g := NewAlertGate(pub, nil, fakeMetrics{})

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", pub.count())
	}
}

func TestDuplicateInsideCooldownSuppressed(t *testing.T) {
	pub := &fakePublisher{}
	g := NewAlertGate(pub, nil, fakeMetrics{}, WithCooldown(10*time.Minute))

	now := time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	now = now.Add(5 * time.Minute)
	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("duplicate inside cooldown should be suppressed, got %d deliveries", pub.count())
	}

	now = now.Add(10 * time.Minute)
	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("post-cooldown submit: %v", err)
	}
	if pub.count() != 2 {
		t.Fatalf("post-cooldown intervention should deliver, got %d", pub.count())
	}
}

func TestCooldownIsPerAsset(t *testing.T) {
	pub := &fakePublisher{}
	g := NewAlertGate(pub, nil, fakeMetrics{}, WithCooldown(10*time.Minute))

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("submit BTC: %v", err)
	}
	eth := pauseBTC()
	eth.Asset = "ETH"
	if err := g.Submit(context.Background(), eth); err != nil {
		t.Fatalf("submit ETH: %v", err)
	}
	if pub.count() != 2 {
		t.Fatalf("different assets must not share a cooldown, got %d", pub.count())
	}
}

func TestInvalidInterventionRejected(t *testing.T) {
	pub := &fakePublisher{}
	g := NewAlertGate(pub, nil, fakeMetrics{})

	iv := pauseBTC()
	iv.Reasoning = ""
	if err := g.Submit(context.Background(), iv); err == nil {
		t.Fatalf("intervention without reasoning must be rejected")
	}
	if pub.count() != 0 {
		t.Fatalf("nothing should deliver")
	}
}

type fakeNotifier struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeNotifier) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, msgType)
	return nil
}

func TestDeliveredInterventionIsFanOutEnqueued(t *testing.T) {
	pub := &fakePublisher{}
	not := &fakeNotifier{}
	g := NewAlertGate(pub, nil, fakeMetrics{}, WithNotifier(not, "intervention.notify"))

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	not.mu.Lock()
	defer not.mu.Unlock()
	if len(not.types) != 1 || not.types[0] != "intervention.notify" {
		t.Fatalf("expected one fan-out enqueue, got %v", not.types)
	}
}

func TestFailedDeliveryDoesNotStartCooldown(t *testing.T) {
	pub := &fakePublisher{fail: true}
	g := NewAlertGate(pub, nil, fakeMetrics{}, WithCooldown(10*time.Minute))

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("submit with down publisher should buffer, got %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("nothing should deliver while the publisher is down")
	}

	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()

	if err := g.Submit(context.Background(), pauseBTC()); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("a buffered failure must not suppress the next submit, got %d deliveries", pub.count())
	}
}

func TestFailedDeliveryIsBufferedAndFlushed(t *testing.T) {
	pub := &fakePublisher{fail: true}
	g := NewAlertGate(pub, nil, fakeMetrics{}, WithGateBuffer(10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)
	defer g.Stop()

	if err := g.Submit(ctx, pauseBTC()); err != nil {
		t.Fatalf("submit with down publisher should buffer, got %v", err)
	}

	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if pub.count() == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("buffered intervention was never flushed")
}
