package usecase

import (
	"context"
	"fmt"
	"time"

	agentcal "MarketSentry/internal/agent/calendar"
	"MarketSentry/internal/agent/chainflow"
	"MarketSentry/internal/agent/sentiment"
	"MarketSentry/internal/domain/models"
	domsvc "MarketSentry/internal/domain/service"
	"MarketSentry/internal/fusion"
	"MarketSentry/internal/knowledge"
)

// Demo replays the 2024-02-05 BTC episode against the live agent and fusion
// code with zero infrastructure: synthetic context, in-memory precedent
// store.
type Demo struct {
	agents []domsvc.Agent
	engine *fusion.Engine
	store  *knowledge.MemoryStore
}

func NewDemo() *Demo {
	return &Demo{
		agents: []domsvc.Agent{chainflow.New(), sentiment.New(), agentcal.New()},
		engine: fusion.New(0.75),
		store:  knowledge.NewMemoryStore(),
	}
}

// Run executes one assessment over the replayed scenario.
func (d *Demo) Run(ctx context.Context) (models.RiskScore, *models.Intervention, []models.Signal, error) {
	if err := d.store.Ensure(ctx, knowledge.Seed()); err != nil {
		return models.RiskScore{}, nil, nil, fmt.Errorf("seed precedents: %w", err)
	}

	mc := ReplayContext()

	var signals []models.Signal
	for _, ag := range d.agents {
		sig, err := ag.Analyze(ctx, mc)
		if err != nil {
			return models.RiskScore{}, nil, nil, fmt.Errorf("agent %s: %w", ag.Name(), err)
		}
		if ag.Validate(sig) {
			signals = append(signals, sig)
		}
	}

	fp := knowledge.BuildFingerprint(mc)
	precedents, sims, err := d.store.FindSimilar(ctx, fp, 5)
	if err != nil {
		return models.RiskScore{}, nil, nil, fmt.Errorf("find similar: %w", err)
	}

	risk, err := d.engine.Synthesize(ctx, signals, precedents, sims)
	if err != nil {
		return models.RiskScore{}, nil, nil, fmt.Errorf("synthesize: %w", err)
	}
	risk.Asset = mc.Asset

	iv, _ := d.engine.Decide(risk)
	return risk, iv, signals, nil
}

// ReplayContext reconstructs the market state of 2024-02-05 around 14:00 UTC:
// concentrated exchange inflows, a volume spike into a sharp drop, and a wave
// of near-identical bullish posts from small accounts.
func ReplayContext() *models.MarketContext {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	now := base.Add(time.Hour)

	candles := make([]models.Candle, 60)
	price := 42600.0
	drift := []float64{1.0002, 0.9999, 1.0001, 0.9998}
	for i := range candles {
		candles[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "BTC",
			Open:   price,
			High:   price * 1.0004,
			Low:    price * 0.9996,
			Close:  price,
			Volume: 90 + float64(i%9)*8,
		}
		price *= drift[i%len(drift)]
	}
	// the dump candle
	last := len(candles) - 1
	candles[last].Close = price * 0.958
	candles[last].Low = price * 0.952
	candles[last].Volume = 4200

	transfers := []models.Transfer{
		{TxHash: "0x9f2a", Asset: "BTC", FromEntity: "whale_0x3f", ToEntity: "exchange:binance", USDValue: 80_000_000, ToExchange: true, Timestamp: now.Add(-22 * time.Minute)},
		{TxHash: "0x4c81", Asset: "BTC", FromEntity: "whale_0x3f", ToEntity: "exchange:okx", USDValue: 45_000_000, ToExchange: true, Timestamp: now.Add(-18 * time.Minute)},
		{TxHash: "0xe775", Asset: "BTC", FromEntity: "", ToEntity: "exchange:binance", USDValue: 25_000_000, ToExchange: true, Timestamp: now.Add(-11 * time.Minute)},
	}

	var posts []models.SocialPost
	for i := 0; i < 8; i++ {
		posts = append(posts, models.SocialPost{
			ID:        fmt.Sprintf("org-%d", i),
			Source:    "x",
			Author:    fmt.Sprintf("trader%d", i),
			Followers: 30_000,
			Text:      fmt.Sprintf("watching BTC levels, update %d", i),
			Sentiment: 0.1,
			Timestamp: base.Add(time.Duration(i*7) * time.Minute),
		})
	}
	for i := 0; i < 60; i++ {
		posts = append(posts, models.SocialPost{
			ID:        fmt.Sprintf("bot-%d", i),
			Source:    "x",
			Author:    fmt.Sprintf("cryptofan%d", i%5),
			Followers: 45,
			Text:      "BTC breakout imminent, this dip is a gift, load up now",
			Sentiment: 0.9,
			Timestamp: now.Add(-6 * time.Minute).Add(time.Duration(i) * 4 * time.Second),
		})
	}

	return &models.MarketContext{
		Asset:     "BTC",
		Timestamp: now,
		Window:    time.Hour,
		Candles:   candles,
		Transfers: transfers,
		Posts:     posts,
		// no scheduled macro event: the timing pattern here is the
		// thin pre-US-open lull, not a print
		ExchangeNetflowUSD: 150_000_000,
	}
}
