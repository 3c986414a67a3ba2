package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
)

// Notifier enqueues delivered interventions for asynchronous fan-out.
type Notifier interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// AlertGate sits between the monitor and the alert publisher. It validates
// interventions, suppresses duplicates per asset inside a cooldown window,
// and buffers when the publisher is unavailable.
type AlertGate struct {
	publisher  domrepo.AlertPublisher
	store      domrepo.AssessmentStore
	metrics    domrepo.Metrics
	notifier   Notifier
	notifyType string

	cooldown time.Duration
	bufSize  int
	bufCh    chan *models.Intervention
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSent map[string]time.Time // per-asset last delivered time

	now func() time.Time
}

type GateOption func(*AlertGate)

// WithCooldown sets the per-asset duplicate suppression window.
func WithCooldown(d time.Duration) GateOption {
	return func(g *AlertGate) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithGateBuffer sets the retry buffer size when delivery fails.
func WithGateBuffer(n int) GateOption {
	return func(g *AlertGate) {
		if n > 0 {
			g.bufSize = n
		}
	}
}

// WithNotifier attaches a fan-out queue; every delivered intervention is
// also enqueued under msgType.
func WithNotifier(n Notifier, msgType string) GateOption {
	return func(g *AlertGate) {
		g.notifier = n
		g.notifyType = msgType
	}
}

// NewAlertGate creates a new gate.
func NewAlertGate(publisher domrepo.AlertPublisher, store domrepo.AssessmentStore, metrics domrepo.Metrics, opts ...GateOption) *AlertGate {
	g := &AlertGate{
		publisher: publisher,
		store:     store,
		metrics:   metrics,
		cooldown:  15 * time.Minute,
		bufSize:   100,
		stopCh:    make(chan struct{}),
		lastSent:  make(map[string]time.Time),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.bufCh = make(chan *models.Intervention, g.bufSize)
	return g
}

// Start launches background flushing of buffered interventions.
func (g *AlertGate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	go func() {
		backoff := 100 * time.Millisecond
		for {
			select {
			case <-g.stopCh:
				return
			case iv := <-g.bufCh:
				if iv == nil {
					continue
				}
				if err := g.deliver(ctx, iv); err != nil {
					if backoff < 5*time.Second {
						backoff *= 2
					}
					g.metrics.RecordError("gate_flush")
					time.Sleep(backoff)
					// requeue if space, drop otherwise
					select {
					case g.bufCh <- iv:
					default:
						g.metrics.RecordError("gate_buffer_drop")
					}
				} else {
					g.stamp(iv.Asset)
					backoff = 100 * time.Millisecond
				}
			}
		}
	}()
}

// Stop halts the background flusher.
func (g *AlertGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return
	}
	g.started = false
	close(g.stopCh)
}

// Submit validates and gates one intervention. Duplicates inside the
// cooldown window return nil without delivery.
func (g *AlertGate) Submit(ctx context.Context, iv *models.Intervention) error {
	if iv == nil {
		return fmt.Errorf("intervention is nil")
	}
	if iv.Action == "" || iv.Asset == "" || iv.Reasoning == "" {
		g.metrics.RecordError("gate_invalid")
		return fmt.Errorf("intervention missing action, asset, or reasoning")
	}

	g.mu.Lock()
	last, seen := g.lastSent[iv.Asset]
	if seen && g.now().Sub(last) < g.cooldown {
		g.mu.Unlock()
		g.metrics.RecordError("gate_duplicate_suppressed")
		return nil
	}
	g.mu.Unlock()

	if err := g.deliver(ctx, iv); err != nil {
		// delivery failed: buffer for the background flusher. The cooldown
		// starts only once a copy actually goes out.
		select {
		case g.bufCh <- iv:
			g.metrics.RecordError("gate_buffered")
		default:
			g.metrics.RecordError("gate_buffer_full")
			return fmt.Errorf("gate buffer full: %w", err)
		}
		return nil
	}
	g.stamp(iv.Asset)
	return nil
}

func (g *AlertGate) stamp(asset string) {
	g.mu.Lock()
	g.lastSent[asset] = g.now()
	g.mu.Unlock()
}

func (g *AlertGate) deliver(ctx context.Context, iv *models.Intervention) error {
	if g.publisher != nil {
		if err := g.publisher.PublishIntervention(ctx, iv); err != nil {
			return fmt.Errorf("publish intervention: %w", err)
		}
	}
	if g.store != nil {
		if err := g.store.StoreIntervention(ctx, iv); err != nil {
			return fmt.Errorf("store intervention: %w", err)
		}
	}
	if g.notifier != nil {
		// fan-out is best effort, the broker and store already have the record
		if err := g.notifier.PublishMessage(ctx, g.notifyType, iv); err != nil {
			g.metrics.RecordError("gate_notify")
		}
	}
	return nil
}
