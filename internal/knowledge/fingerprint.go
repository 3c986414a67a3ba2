package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/services/features"
)

// BuildFingerprint reduces a market context to the fixed feature vector used
// for precedent matching. Deterministic: equal contexts yield equal vectors
// and IDs.
func BuildFingerprint(mc *models.MarketContext) models.Fingerprint {
	// z-like features clamp to [-5,5] so one extreme dimension cannot
	// dominate the cosine direction
	var v [models.FingerprintDim]float64
	v[0] = clamp(features.ReturnZ(mc.Candles), -5, 5)
	v[1] = clamp(features.VolumeZ(mc.Candles), -5, 5)
	v[2] = features.Concentration(mc.Transfers)
	v[3] = clamp(features.BurstScore(mc.Posts, 10), 0, 5)
	v[4] = eventProximity(mc)

	return models.Fingerprint{
		ID:     fingerprintID(mc.Asset, v),
		Asset:  mc.Asset,
		Vector: v,
	}
}

func eventProximity(mc *models.MarketContext) float64 {
	window := mc.Window
	if window <= 0 {
		return 0
	}
	var best float64
	for _, e := range mc.Events {
		dt := e.Scheduled.Sub(mc.Timestamp)
		if dt < 0 {
			dt = -dt
		}
		if dt > window {
			continue
		}
		closeness := 1 - float64(dt)/float64(window)
		if closeness > best {
			best = closeness
		}
	}
	return best
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func fingerprintID(asset string, v [models.FingerprintDim]float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s", asset)
	for _, x := range v {
		// round to 4 decimals so float noise does not change identity
		fmt.Fprintf(h, "|%.4f", x)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Cosine returns the cosine similarity of two fingerprint vectors in [-1,1].
// Zero vectors compare as 0.
func Cosine(a, b [models.FingerprintDim]float64) float64 {
	var dot, na, nb float64
	for i := 0; i < models.FingerprintDim; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
