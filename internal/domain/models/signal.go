package models

import "time"

// Severity levels ordered from benign to critical.
const (
	SeverityNone     = "none"
	SeverityNotice   = "notice"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// SeverityRank maps a severity label to its ordinal. Unknown labels rank -1.
func SeverityRank(s string) int {
	switch s {
	case SeverityNone:
		return 0
	case SeverityNotice:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// SeverityForRank is the inverse of SeverityRank; out-of-range ranks clamp.
func SeverityForRank(r int) string {
	switch {
	case r <= 0:
		return SeverityNone
	case r == 1:
		return SeverityNotice
	case r == 2:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// Signal is the typed output of a detection agent for one pattern category.
// Reasoning is mandatory: an agent that cannot explain its score must not
// emit one.
type Signal struct {
	Agent        string             `json:"agent"`
	Pattern      string             `json:"pattern"`
	Asset        string             `json:"asset"`
	Timestamp    time.Time          `json:"timestamp"`
	AnomalyScore float64            `json:"anomaly_score"`
	Confidence   float64            `json:"confidence"` // [0,1], calibrated
	Severity     string             `json:"severity"`
	Reasoning    string             `json:"reasoning"`
	Evidence     map[string]float64 `json:"evidence,omitempty"`
	Precedents   []string           `json:"precedents,omitempty"`
}

// Corroborated reports whether the signal rests on more than one evidence
// category. Single-slice evidence keeps confidence capped by agents.
func (s *Signal) Corroborated() bool {
	nonZero := 0
	for _, v := range s.Evidence {
		if v != 0 {
			nonZero++
		}
	}
	return nonZero >= 2
}
