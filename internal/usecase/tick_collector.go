package usecase

import (
	"context"

	"MarketSentry/internal/domain/models"
	drepo "MarketSentry/internal/domain/repository"
)

// TickCollector reads the exchange stream and feeds the processor.
type TickCollector struct {
	stream  drepo.TickStream
	proc    *TickProcessor
	metrics drepo.Metrics
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.TickStream, proc *TickProcessor, metrics drepo.Metrics) *TickCollector {
	return &TickCollector{stream: stream, proc: proc, metrics: metrics}
}

// IsConnected returns true if the exchange stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		if tickCh == nil && errCh == nil {
			if tickCh, errCh = c.reopen(ctx); tickCh == nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case t, ok := <-tickCh:
			if !ok {
				tickCh = nil
				continue
			}
			if t == nil {
				continue
			}
			_ = c.proc.Process(ctx, t)
		}
	}
}

// reopen re-dials the stream and hands back fresh channels. The stream's read
// goroutine closes both channels when it hits a read error, so a successful
// Reconnect must be followed by a new Read call or ingestion stops for good.
func (c *TickCollector) reopen(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			continue
		}
		return c.stream.Read(ctx)
	}
}

// Processor returns the underlying TickProcessor for lifecycle management.
func (c *TickCollector) Processor() *TickProcessor { return c.proc }

// Shutdown closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
