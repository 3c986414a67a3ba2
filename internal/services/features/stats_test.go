package features

import (
	"math"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

func candlesWithCloses(closes ...float64) []models.Candle {
	base := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Bucket: base.Add(time.Duration(i) * time.Minute), Close: c, Volume: 100}
	}
	return out
}

func TestLogReturns(t *testing.T) {
	rets := LogReturns(candlesWithCloses(100, 110, 99))
	if len(rets) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rets))
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-9 {
		t.Fatalf("unexpected first return %v", rets[0])
	}
}

func TestZScoreDegenerateBaseline(t *testing.T) {
	if z := ZScore(10, []float64{5}); z != 0 {
		t.Fatalf("single-point baseline should score 0, got %v", z)
	}
	if z := ZScore(5, []float64{5, 5, 5}); z != 0 {
		t.Fatalf("value at the flat baseline should score 0, got %v", z)
	}
}

func TestZScoreFlatBaselineSaturates(t *testing.T) {
	flat := []float64{100, 100, 100, 100}
	if z := ZScore(3000, flat); z != zSaturation {
		t.Fatalf("spike over a flat baseline should saturate to %v, got %v", float64(zSaturation), z)
	}
	if z := ZScore(1, flat); z != -zSaturation {
		t.Fatalf("drop under a flat baseline should saturate to %v, got %v", -float64(zSaturation), z)
	}
}

func TestZScore(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5}
	z := ZScore(3, base)
	if math.Abs(z) > 1e-9 {
		t.Fatalf("mean value should score 0, got %v", z)
	}
	if z := ZScore(10, base); z <= 2 {
		t.Fatalf("outlier should score high, got %v", z)
	}
}

func TestConcentrationSingleTransfer(t *testing.T) {
	ts := []models.Transfer{{USDValue: 50_000_000}}
	if c := Concentration(ts); c != 1 {
		t.Fatalf("single transfer should be fully concentrated, got %v", c)
	}
}

func TestConcentrationSpread(t *testing.T) {
	ts := []models.Transfer{
		{USDValue: 1_000_000},
		{USDValue: 1_000_000},
		{USDValue: 1_000_000},
		{USDValue: 1_000_000},
	}
	if c := Concentration(ts); math.Abs(c-0.25) > 1e-9 {
		t.Fatalf("even spread should be 0.25, got %v", c)
	}
}

func TestBurstScoreQuiet(t *testing.T) {
	base := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	var posts []models.SocialPost
	for i := 0; i < 30; i++ {
		posts = append(posts, models.SocialPost{
			ID:        "p",
			Author:    "a",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	if b := BurstScore(posts, 10); b > 0.2 {
		t.Fatalf("uniform posting should not look like a burst, got %v", b)
	}
}

func TestBurstScoreSpike(t *testing.T) {
	base := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	var posts []models.SocialPost
	// sparse early window
	for i := 0; i < 5; i++ {
		posts = append(posts, models.SocialPost{Timestamp: base.Add(time.Duration(i*10) * time.Minute)})
	}
	// dense final stretch
	for i := 0; i < 40; i++ {
		posts = append(posts, models.SocialPost{Timestamp: base.Add(55*time.Minute + time.Duration(i)*10*time.Second)})
	}
	if b := BurstScore(posts, 10); b < 2 {
		t.Fatalf("spike should score high, got %v", b)
	}
}

func TestBurstScoreTooFewPosts(t *testing.T) {
	posts := []models.SocialPost{{Timestamp: time.Now()}, {Timestamp: time.Now().Add(time.Minute)}}
	if b := BurstScore(posts, 10); b != 0 {
		t.Fatalf("too few posts should score 0, got %v", b)
	}
}

func TestAuthorDiversity(t *testing.T) {
	posts := []models.SocialPost{
		{Author: "a"}, {Author: "a"}, {Author: "a"}, {Author: "b"},
	}
	if d := AuthorDiversity(posts); math.Abs(d-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %v", d)
	}
}

func TestSquash(t *testing.T) {
	if s := Squash(0, 1); s != 0 {
		t.Fatalf("zero should squash to 0, got %v", s)
	}
	if s := Squash(5, 5); math.Abs(s-0.5) > 1e-9 {
		t.Fatalf("x==scale should squash to 0.5, got %v", s)
	}
	if s := Squash(1e9, 5); s >= 1 {
		t.Fatalf("squash must stay below 1, got %v", s)
	}
}
