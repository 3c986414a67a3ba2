package sentiment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func TestQuietWindowScoresNone(t *testing.T) {
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC),
		Posts:     []models.SocialPost{{Author: "a"}, {Author: "b"}},
	}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Severity != models.SeverityNone {
		t.Fatalf("quiet window should be benign, got %s", sig.Severity)
	}
	if sig.Reasoning == "" {
		t.Fatalf("reasoning must not be empty")
	}
}

func TestOrganicBurstIsCapped(t *testing.T) {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	var posts []models.SocialPost
	// diverse authors, unique texts, a genuine news burst
	for i := 0; i < 10; i++ {
		posts = append(posts, models.SocialPost{
			Author:    fmt.Sprintf("user%d", i),
			Followers: 50_000,
			Text:      fmt.Sprintf("take number %d on the market", i),
			Sentiment: 0.3,
			Timestamp: base.Add(time.Duration(i*6) * time.Minute),
		})
	}
	for i := 0; i < 50; i++ {
		posts = append(posts, models.SocialPost{
			Author:    fmt.Sprintf("news%d", i),
			Followers: 20_000,
			Text:      fmt.Sprintf("breaking update variant %d", i),
			Sentiment: 0.3,
			Timestamp: base.Add(57*time.Minute + time.Duration(i)*3*time.Second),
		})
	}
	mc := &models.MarketContext{Asset: "BTC", Timestamp: base.Add(time.Hour), Posts: posts}

	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence > 0.25 {
		t.Fatalf("organic burst should cap at 0.25, got %v", sig.Confidence)
	}
}

func TestCoordinatedAstroturfScoresHigh(t *testing.T) {
	base := time.Date(2024, 2, 5, 13, 0, 0, 0, time.UTC)
	var posts []models.SocialPost
	for i := 0; i < 8; i++ {
		posts = append(posts, models.SocialPost{
			Author:    fmt.Sprintf("organic%d", i),
			Followers: 10_000,
			Text:      fmt.Sprintf("market thought %d", i),
			Sentiment: 0.1,
			Timestamp: base.Add(time.Duration(i*7) * time.Minute),
		})
	}
	// burst of identical bullish copy from tiny accounts while price falls
	for i := 0; i < 60; i++ {
		posts = append(posts, models.SocialPost{
			Author:    fmt.Sprintf("bot%d", i%5),
			Followers: 40,
			Text:      "BTC to the moon, buy now before it is too late",
			Sentiment: 0.9,
			Timestamp: base.Add(56*time.Minute + time.Duration(i)*2*time.Second),
		})
	}

	candles := make([]models.Candle, 30)
	price := 42000.0
	for i := range candles {
		candles[i] = models.Candle{
			Bucket: base.Add(time.Duration(i*2) * time.Minute),
			Close:  price,
			Volume: 100,
		}
		price *= 0.998 // steady decline
	}

	mc := &models.MarketContext{Asset: "BTC", Timestamp: base.Add(time.Hour), Posts: posts, Candles: candles}

	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence < 0.4 {
		t.Fatalf("coordinated astroturf should score high, got %v", sig.Confidence)
	}
	if models.SeverityRank(sig.Severity) < models.SeverityRank(models.SeverityNotice) {
		t.Fatalf("expected at least notice, got %s", sig.Severity)
	}
	if sig.Evidence["coordination"] < 0.3 {
		t.Fatalf("coordination evidence should register, got %v", sig.Evidence["coordination"])
	}
}
