package models

import "time"

// PrecedentRef cites a historical episode inside a risk assessment.
type PrecedentRef struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Contribution records how much one agent's signal moved the fused score.
type Contribution struct {
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
	Severity   string  `json:"severity"`
}

// RiskScore is the fused assessment produced by the consensus engine.
// Explanation is mandatory and is assembled from the contributing agents'
// reasonings plus cited precedents. Errors holds per-agent failures from a
// degraded run; a failed agent never aborts the assessment.
type RiskScore struct {
	Asset         string            `json:"asset"`
	Timestamp     time.Time         `json:"timestamp"`
	Confidence    float64           `json:"confidence"`
	Severity      string            `json:"severity"`
	Explanation   string            `json:"explanation"`
	SimilarEvents []PrecedentRef    `json:"similar_events,omitempty"`
	Contributions []Contribution    `json:"contributions,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// ActionPause is the only intervention action currently issued.
const ActionPause = "PAUSE"

// Intervention is the user-facing recommendation emitted when a fused
// assessment crosses the confidence/severity gate.
type Intervention struct {
	Action              string    `json:"action"`
	Asset               string    `json:"asset"`
	Reasoning           string    `json:"reasoning"`
	HistoricalPrecedent string    `json:"historical_precedent,omitempty"`
	IssuedAt            time.Time `json:"issued_at"`
	Risk                RiskScore `json:"risk"`
}
