package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

// flakyStream fails its first read session with a connection error and then
// serves a healthy session on every Read after a reconnect.
type flakyStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int32
}

func (s *flakyStream) Connect(ctx context.Context) error   { return nil }
func (s *flakyStream) Subscribe(ctx context.Context) error { return nil }
func (s *flakyStream) Close() error                        { return nil }
func (s *flakyStream) IsConnected() bool                   { return true }

func (s *flakyStream) Reconnect(ctx context.Context) error {
	atomic.AddInt32(&s.reconnects, 1)
	return nil
}

func (s *flakyStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	ticks := make(chan *models.Tick, 8)
	errs := make(chan error, 1)
	ticks <- &models.Tick{Symbol: "BTC", Timestamp: 1700000000, Price: 42000, Volume: 1}
	if first {
		errs <- errors.New("connection reset")
		close(ticks)
		close(errs)
	}
	return ticks, errs
}

type recordingPublisher struct {
	mu    sync.Mutex
	ticks []*models.Tick
}

func (p *recordingPublisher) Publish(ctx context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

func TestCollectorResumesAfterStreamError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &flakyStream{}
	pub := &recordingPublisher{}
	proc := NewTickProcessor(pub, nil, fakeMetrics{}, "kafka")
	c := NewTickCollector(stream, proc, fakeMetrics{})

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pub.count(); got < 2 {
		t.Fatalf("ingestion did not resume after the stream error, got %d ticks", got)
	}
	if n := atomic.LoadInt32(&stream.reconnects); n != 1 {
		t.Fatalf("expected exactly one reconnect, got %d", n)
	}
}
