package usecase

import (
	"context"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	applogger "MarketSentry/pkg/logger"
)

// ContextBuilder assembles a per-asset MarketContext from all connectors.
// Connector fetches run in parallel; a failed connector leaves its slice
// empty and records the error, so agents see absence of evidence instead of
// an aborted run.
type ContextBuilder struct {
	features domrepo.FeatureStore
	chain    domrepo.ChainSource
	flow     domrepo.FlowSource
	social   domrepo.SocialSource
	events   domrepo.EventSource
	logger   *applogger.Logger
}

func NewContextBuilder(
	features domrepo.FeatureStore,
	chain domrepo.ChainSource,
	flow domrepo.FlowSource,
	social domrepo.SocialSource,
	events domrepo.EventSource,
	lgr *applogger.Logger,
) *ContextBuilder {
	return &ContextBuilder{
		features: features,
		chain:    chain,
		flow:     flow,
		social:   social,
		events:   events,
		logger:   lgr,
	}
}

// Build fetches every context category in parallel. The returned error map is
// keyed by connector name; the context is always usable.
func (b *ContextBuilder) Build(ctx context.Context, asset string, window time.Duration) (*models.MarketContext, map[string]string) {
	now := time.Now().UTC()
	since := now.Add(-window)

	mc := &models.MarketContext{
		Asset:     asset,
		Timestamp: now,
		Window:    window,
	}
	errs := make(map[string]string)

	var wg sync.WaitGroup
	var mu sync.Mutex

	fail := func(name string, err error) {
		mu.Lock()
		errs[name] = err.Error()
		mu.Unlock()
		b.logger.Warn("connector failed, context degraded",
			applogger.String("connector", name),
			applogger.String("asset", asset),
			applogger.Error(err))
	}

	if b.features != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cs, err := b.features.GetCandles(ctx, asset, since, now, domrepo.DefaultTimeframe())
			if err != nil {
				fail("market", err)
				return
			}
			mu.Lock()
			mc.Candles = cs
			mu.Unlock()
		}()
	}

	if b.chain != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, err := b.chain.LargeTransfers(ctx, asset, since)
			if err != nil {
				fail("chain", err)
				return
			}
			mu.Lock()
			mc.Transfers = ts
			mu.Unlock()
		}()
	}

	if b.flow != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nf, err := b.flow.ExchangeNetflowUSD(ctx, asset, since)
			if err != nil {
				fail("flow", err)
				return
			}
			mu.Lock()
			mc.ExchangeNetflowUSD = nf
			mu.Unlock()
		}()
	}

	if b.social != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ps, err := b.social.RecentPosts(ctx, asset, since)
			if err != nil {
				fail("social", err)
				return
			}
			mu.Lock()
			mc.Posts = ps
			mu.Unlock()
		}()
	}

	if b.events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			es, err := b.events.Upcoming(ctx, window)
			if err != nil {
				fail("calendar", err)
				return
			}
			mu.Lock()
			mc.Events = es
			mu.Unlock()
		}()
	}

	wg.Wait()
	return mc, errs
}
