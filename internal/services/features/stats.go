package features

import (
	"math"

	"MarketSentry/internal/domain/models"
)

// LogReturns computes log returns over consecutive candle closes.
func LogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Close, candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// Mean returns the arithmetic mean of xs, 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// zSaturation caps z-scores on zero-variance baselines. Matches the clamp
// applied to fingerprint dimensions.
const zSaturation = 5

// ZScore returns how many sample standard deviations x sits from the mean of
// the baseline. Fewer than two baseline points score 0. A zero-variance
// baseline saturates to ±zSaturation when x deviates at all: any departure
// from a perfectly flat history is maximally anomalous, not invisible.
func ZScore(x float64, baseline []float64) float64 {
	if len(baseline) < 2 {
		return 0
	}
	m := Mean(baseline)
	sd := StdDev(baseline)
	if sd == 0 {
		switch {
		case x > m:
			return zSaturation
		case x < m:
			return -zSaturation
		}
		return 0
	}
	return (x - m) / sd
}

// RealizedVol is the annualization-free realized volatility of candle
// returns, i.e. the standard deviation of log returns over the window.
func RealizedVol(candles []models.Candle) float64 {
	return StdDev(LogReturns(candles))
}

// VolumeZ scores the latest candle volume against the preceding window.
func VolumeZ(candles []models.Candle) float64 {
	if len(candles) < 3 {
		return 0
	}
	vols := make([]float64, 0, len(candles)-1)
	for _, c := range candles[:len(candles)-1] {
		vols = append(vols, c.Volume)
	}
	return ZScore(candles[len(candles)-1].Volume, vols)
}

// ReturnZ scores the latest log return against the preceding returns.
func ReturnZ(candles []models.Candle) float64 {
	rets := LogReturns(candles)
	if len(rets) < 3 {
		return 0
	}
	return ZScore(rets[len(rets)-1], rets[:len(rets)-1])
}

// Concentration is the Herfindahl-style share of the largest transfer in the
// total USD value of the window. 1.0 means a single transfer dominates.
func Concentration(transfers []models.Transfer) float64 {
	if len(transfers) == 0 {
		return 0
	}
	var total, max float64
	for _, t := range transfers {
		total += t.USDValue
		if t.USDValue > max {
			max = t.USDValue
		}
	}
	if total == 0 {
		return 0
	}
	return max / total
}

// BurstScore measures posting-rate acceleration: the ratio of posts in the
// most recent third of the window to the average rate of the earlier two
// thirds, expressed as a z-like score. Fewer than minPosts posts score 0.
func BurstScore(posts []models.SocialPost, minPosts int) float64 {
	if len(posts) < minPosts {
		return 0
	}

	var first, last models.SocialPost
	first, last = posts[0], posts[0]
	for _, p := range posts {
		if p.Timestamp.Before(first.Timestamp) {
			first = p
		}
		if p.Timestamp.After(last.Timestamp) {
			last = p
		}
	}
	span := last.Timestamp.Sub(first.Timestamp)
	if span <= 0 {
		return 0
	}

	cutoff := last.Timestamp.Add(-span / 3)
	var recent, earlier float64
	for _, p := range posts {
		if p.Timestamp.After(cutoff) {
			recent++
		} else {
			earlier++
		}
	}
	if earlier == 0 {
		return 0
	}
	// earlier covers 2/3 of the span, recent 1/3
	baseRate := earlier / 2.0
	if baseRate == 0 {
		return 0
	}
	ratio := recent / baseRate
	if ratio <= 1 {
		return 0
	}
	return math.Log2(ratio)
}

// MeanSentiment averages sentiment across posts, follower-weighted so a few
// large accounts move the needle more than many small ones.
func MeanSentiment(posts []models.SocialPost) float64 {
	if len(posts) == 0 {
		return 0
	}
	var sum, wsum float64
	for _, p := range posts {
		w := 1.0 + math.Log1p(float64(p.Followers))
		sum += p.Sentiment * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// AuthorDiversity is the fraction of distinct authors among posts. Low
// diversity with high volume suggests coordinated posting.
func AuthorDiversity(posts []models.SocialPost) float64 {
	if len(posts) == 0 {
		return 1
	}
	authors := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		authors[p.Author] = struct{}{}
	}
	return float64(len(authors)) / float64(len(posts))
}

// Clamp01 clamps x into [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Squash maps a non-negative score onto [0,1) with diminishing returns.
// scale controls where the curve reaches ~0.5.
func Squash(x, scale float64) float64 {
	if x <= 0 || scale <= 0 {
		return 0
	}
	return x / (x + scale)
}
