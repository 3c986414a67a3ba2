package chainflow

import (
	"context"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func flatCandles(n int, base time.Time) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "BTC",
			Open:   42000, High: 42010, Low: 41990, Close: 42000,
			Volume: 100,
		}
	}
	return out
}

func quietPosts(base time.Time) []models.SocialPost {
	var posts []models.SocialPost
	for i := 0; i < 12; i++ {
		posts = append(posts, models.SocialPost{
			ID:        "p",
			Author:    "author",
			Sentiment: 0.1,
			Timestamp: base.Add(time.Duration(i*5) * time.Minute),
		})
	}
	return posts
}

// A single large transfer with no sentiment spike on a weekday is routine
// whale movement and must score low.
func TestSingleTransferNoCorroborationScoresLow(t *testing.T) {
	monday := time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC)
	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: monday,
		Window:    time.Hour,
		Candles:   flatCandles(60, monday.Add(-time.Hour)),
		Posts:     quietPosts(monday.Add(-time.Hour)),
		Transfers: []models.Transfer{{
			TxHash:     "0xabc",
			Asset:      "BTC",
			USDValue:   40_000_000,
			ToExchange: true,
			Timestamp:  monday.Add(-10 * time.Minute),
		}},
	}

	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence >= 0.3 {
		t.Fatalf("uncorroborated single transfer should score below 0.3, got %v", sig.Confidence)
	}
	if sig.Reasoning == "" {
		t.Fatalf("reasoning must not be empty")
	}
}

func TestCorroboratedFlowScoresHigh(t *testing.T) {
	monday := time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC)
	candles := flatCandles(60, monday.Add(-time.Hour))
	candles[len(candles)-1].Volume = 2000 // volume spike

	var posts []models.SocialPost
	for i := 0; i < 10; i++ {
		posts = append(posts, models.SocialPost{Author: "a", Timestamp: monday.Add(-time.Hour).Add(time.Duration(i*6) * time.Minute)})
	}
	for i := 0; i < 60; i++ {
		posts = append(posts, models.SocialPost{Author: "b", Timestamp: monday.Add(-5 * time.Minute).Add(time.Duration(i) * time.Second)})
	}

	mc := &models.MarketContext{
		Asset:     "BTC",
		Timestamp: monday,
		Window:    time.Hour,
		Candles:   candles,
		Posts:     posts,
		Transfers: []models.Transfer{
			{USDValue: 50_000_000, ToExchange: true, Timestamp: monday.Add(-15 * time.Minute)},
			{USDValue: 45_000_000, ToExchange: true, Timestamp: monday.Add(-12 * time.Minute)},
			{USDValue: 30_000_000, ToExchange: true, Timestamp: monday.Add(-8 * time.Minute)},
		},
	}

	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Confidence < 0.5 {
		t.Fatalf("corroborated exchange inflow should score high, got %v", sig.Confidence)
	}
	if models.SeverityRank(sig.Severity) < models.SeverityRank(models.SeverityNotice) {
		t.Fatalf("expected at least notice severity, got %s", sig.Severity)
	}
}

func TestNoTransfersYieldsNoneSeverity(t *testing.T) {
	mc := &models.MarketContext{Asset: "BTC", Timestamp: time.Now()}
	sig, err := New().Analyze(context.Background(), mc)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if sig.Severity != models.SeverityNone || sig.Confidence != 0 {
		t.Fatalf("empty context should be benign, got %s/%v", sig.Severity, sig.Confidence)
	}
}

func TestValidateRejectsEmptyReasoning(t *testing.T) {
	a := New()
	sig := models.Signal{Agent: "chainflow", Confidence: 0.5, Severity: models.SeverityNotice}
	if a.Validate(sig) {
		t.Fatalf("signal without reasoning must not validate")
	}
	sig.Reasoning = "something happened"
	if !a.Validate(sig) {
		t.Fatalf("valid signal rejected")
	}
	sig.Confidence = 1.2
	if a.Validate(sig) {
		t.Fatalf("out-of-range confidence must not validate")
	}
}
