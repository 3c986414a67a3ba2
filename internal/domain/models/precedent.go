package models

import "time"

// FingerprintDim is the fixed length of a market fingerprint vector.
// Order: return z, volume z, transfer concentration, sentiment burst,
// event proximity.
const FingerprintDim = 5

// Fingerprint identifies the shape of a market episode for precedent lookup.
type Fingerprint struct {
	ID     string                  `json:"id"`
	Asset  string                  `json:"asset"`
	Vector [FingerprintDim]float64 `json:"vector"`
}

// Precedent is a documented historical manipulation episode used as a
// comparison target for fingerprint matching.
type Precedent struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Date    time.Time               `json:"date"`
	Asset   string                  `json:"asset"`
	Pattern string                  `json:"pattern"`
	Vector  [FingerprintDim]float64 `json:"vector"`
	Summary string                  `json:"summary"`
	Outcome string                  `json:"outcome"`
}
