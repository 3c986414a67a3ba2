package knowledge

import (
	"context"
	"math"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func dumpContext() *models.MarketContext {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, 30)
	price := 42000.0
	drift := []float64{1.0002, 0.9999, 1.0001}
	for i := range candles {
		candles[i] = models.Candle{
			Bucket: base.Add(time.Duration(i*2) * time.Minute),
			Close:  price,
			Volume: 100 + float64(i%7)*10,
		}
		price *= drift[i%len(drift)]
	}
	// crash candle with volume spike
	candles[len(candles)-1].Close = price * 0.96
	candles[len(candles)-1].Volume = 3500

	var posts []models.SocialPost
	for i := 0; i < 8; i++ {
		posts = append(posts, models.SocialPost{Author: "a", Timestamp: base.Add(time.Duration(i*7) * time.Minute)})
	}
	for i := 0; i < 80; i++ {
		posts = append(posts, models.SocialPost{Author: "bot", Timestamp: base.Add(56*time.Minute + time.Duration(i)*2*time.Second)})
	}

	return &models.MarketContext{
		Asset:     "BTC",
		Timestamp: base.Add(time.Hour),
		Window:    time.Hour,
		Candles:   candles,
		Posts:     posts,
		Transfers: []models.Transfer{
			{USDValue: 80_000_000, ToExchange: true},
			{USDValue: 10_000_000, ToExchange: true},
			{USDValue: 5_000_000},
		},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := BuildFingerprint(dumpContext())
	b := BuildFingerprint(dumpContext())
	if a.ID != b.ID {
		t.Fatalf("equal contexts must produce equal fingerprint IDs: %s vs %s", a.ID, b.ID)
	}
	if a.Vector != b.Vector {
		t.Fatalf("equal contexts must produce equal vectors")
	}
}

func TestCosineBounds(t *testing.T) {
	v := [models.FingerprintDim]float64{1, 2, 3, 4, 5}
	if s := Cosine(v, v); math.Abs(s-1) > 1e-9 {
		t.Fatalf("self similarity must be 1, got %v", s)
	}
	var zero [models.FingerprintDim]float64
	if s := Cosine(v, zero); s != 0 {
		t.Fatalf("zero vector similarity must be 0, got %v", s)
	}
	neg := [models.FingerprintDim]float64{-1, -2, -3, -4, -5}
	if s := Cosine(v, neg); math.Abs(s+1) > 1e-9 {
		t.Fatalf("opposite vectors must score -1, got %v", s)
	}
}

func TestSeededDumpEpisodeIsRetrieved(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Ensure(ctx, Seed()); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	fp := BuildFingerprint(dumpContext())
	ps, sims, err := store.FindSimilar(ctx, fp, 3)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(ps) == 0 {
		t.Fatalf("expected matches")
	}
	if ps[0].ID != "ep-2024-02-05-btc" {
		t.Fatalf("expected the 2024-02-05 dump episode as best match, got %s (sim %v)", ps[0].ID, sims[0])
	}
	if sims[0] < 0.75 {
		t.Fatalf("best match similarity should clear the citation threshold, got %v", sims[0])
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Ensure(ctx, Seed()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := store.Ensure(ctx, Seed()); err != nil {
		t.Fatalf("ensure twice: %v", err)
	}
	ps, err := store.ByAsset(ctx, "BTC", 0)
	if err != nil {
		t.Fatalf("by asset: %v", err)
	}
	if len(ps) != len(Seed()) {
		t.Fatalf("duplicate ensure should not duplicate rows: got %d", len(ps))
	}
}
