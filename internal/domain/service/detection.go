package service

import (
	"context"

	"MarketSentry/internal/domain/models"
)

// Agent inspects a market context and emits a risk signal for one
// manipulation pattern category. Analyze must return an explainable signal:
// non-empty reasoning, confidence in [0,1] calibrated against historical
// accuracy, and an evidence map naming every input that moved the score.
type Agent interface {
	Name() string
	Pattern() string
	Analyze(ctx context.Context, mc *models.MarketContext) (models.Signal, error)
	Validate(sig models.Signal) bool
}

// FusionEngine combines per-agent signals plus historical precedents into a
// single risk assessment.
type FusionEngine interface {
	Synthesize(ctx context.Context, signals []models.Signal, precedents []models.Precedent, similarity []float64) (models.RiskScore, error)
}

// ValidateSignal is the shared validation contract: every emitted signal
// must carry a reasoning, an in-range confidence, and a known severity.
// Agents embed this in their own Validate implementations.
func ValidateSignal(sig models.Signal) bool {
	if sig.Reasoning == "" {
		return false
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		return false
	}
	return models.SeverityRank(sig.Severity) >= 0
}
