package fusion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/domain/service"
	"MarketSentry/internal/services/features"
)

const (
	// interventionConfidence and interventionSeverity gate the PAUSE
	// recommendation. Both must hold.
	interventionConfidence = 0.8
	interventionSeverity   = models.SeverityCritical

	// corroborationBoost rewards independent agents agreeing at warning
	// or above; loneDamp discounts a single loud agent.
	corroborationBoost = 1.25
	loneDamp           = 0.75

	// precedentLift is the per-match confidence lift for a cited
	// precedent, scaled by its similarity, capped at maxPrecedentLift.
	precedentLift    = 0.06
	maxPrecedentLift = 0.12
)

// Engine fuses validated agent signals and historical precedents into one
// risk assessment. Explanations are assembled, never optional.
type Engine struct {
	minSimilarity  float64
	confidenceGate float64
}

// Option configures Engine.
type Option func(*Engine)

// WithConfidenceGate overrides the confidence floor for the PAUSE
// recommendation. Values outside (0,1] are ignored.
func WithConfidenceGate(gate float64) Option {
	return func(e *Engine) {
		if gate > 0 && gate <= 1 {
			e.confidenceGate = gate
		}
	}
}

// New creates a fusion engine. minSimilarity is the cosine similarity floor
// for citing a precedent; values <= 0 fall back to 0.75.
func New(minSimilarity float64, opts ...Option) *Engine {
	if minSimilarity <= 0 {
		minSimilarity = 0.75
	}
	e := &Engine{
		minSimilarity:  minSimilarity,
		confidenceGate: interventionConfidence,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ service.FusionEngine = (*Engine)(nil)

// Synthesize combines signals with precedent matches. Signals failing the
// validation contract are skipped, not fatal.
func (e *Engine) Synthesize(ctx context.Context, signals []models.Signal, precedents []models.Precedent, similarity []float64) (models.RiskScore, error) {
	if err := ctx.Err(); err != nil {
		return models.RiskScore{}, err
	}

	risk := models.RiskScore{Timestamp: time.Now().UTC()}

	var valid []models.Signal
	for _, s := range signals {
		if !service.ValidateSignal(s) {
			continue
		}
		valid = append(valid, s)
		if risk.Asset == "" {
			risk.Asset = s.Asset
		}
		if !s.Timestamp.IsZero() {
			risk.Timestamp = s.Timestamp
		}
	}
	if len(valid) == 0 {
		risk.Severity = models.SeverityNone
		risk.Explanation = "no valid agent signals to fuse"
		return risk, nil
	}

	// weighted mean: severity-ranked signals carry more weight
	var sum, wsum float64
	maxRank := 0
	loud := 0 // signals at warning or above
	for _, s := range valid {
		w := 1.0 + 0.5*float64(models.SeverityRank(s.Severity))
		sum += s.Confidence * w
		wsum += w
		if r := models.SeverityRank(s.Severity); r > maxRank {
			maxRank = r
		}
		if models.SeverityRank(s.Severity) >= models.SeverityRank(models.SeverityWarning) {
			loud++
		}
		risk.Contributions = append(risk.Contributions, models.Contribution{
			Agent:      s.Agent,
			Confidence: s.Confidence,
			Weight:     w,
			Severity:   s.Severity,
		})
	}
	confidence := sum / wsum

	corroborated := loud >= 2
	if corroborated {
		confidence *= corroborationBoost
	} else if loud == 1 {
		confidence *= loneDamp
	}

	// precedent citations lift confidence
	var lift float64
	for i, p := range precedents {
		if i >= len(similarity) {
			break
		}
		sim := similarity[i]
		if sim < e.minSimilarity {
			continue
		}
		risk.SimilarEvents = append(risk.SimilarEvents, models.PrecedentRef{
			ID:         p.ID,
			Name:       p.Name,
			Similarity: sim,
		})
		lift += precedentLift * sim
	}
	if lift > maxPrecedentLift {
		lift = maxPrecedentLift
	}
	confidence = features.Clamp01(confidence + lift)
	risk.Confidence = confidence

	// severity from fused confidence, floored near the loudest agent
	floor := maxRank
	if !corroborated {
		floor--
	}
	rank := severityRankFor(confidence)
	if floor > rank {
		rank = floor
	}
	risk.Severity = models.SeverityForRank(rank)

	risk.Explanation = e.explain(valid, risk.SimilarEvents, corroborated)
	return risk, nil
}

// Decide applies the intervention gate to a fused assessment.
func (e *Engine) Decide(risk models.RiskScore) (*models.Intervention, bool) {
	if risk.Confidence < e.confidenceGate || risk.Severity != interventionSeverity {
		return nil, false
	}
	iv := &models.Intervention{
		Action:    models.ActionPause,
		Asset:     risk.Asset,
		Reasoning: risk.Explanation,
		IssuedAt:  time.Now().UTC(),
		Risk:      risk,
	}
	if len(risk.SimilarEvents) > 0 {
		best := risk.SimilarEvents[0]
		iv.HistoricalPrecedent = fmt.Sprintf("%s (similarity %.2f)", best.Name, best.Similarity)
	}
	return iv, true
}

func (e *Engine) explain(signals []models.Signal, cited []models.PrecedentRef, corroborated bool) string {
	var b strings.Builder
	for i, s := range signals {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "%s (%.2f, %s): %s", s.Agent, s.Confidence, s.Severity, s.Reasoning)
	}
	if corroborated {
		b.WriteString(" | multiple agents corroborate the pattern")
	}
	for _, c := range cited {
		fmt.Fprintf(&b, " | resembles %s (similarity %.2f)", c.Name, c.Similarity)
	}
	return b.String()
}

func severityRankFor(confidence float64) int {
	switch {
	case confidence >= 0.8:
		return models.SeverityRank(models.SeverityCritical)
	case confidence >= 0.6:
		return models.SeverityRank(models.SeverityWarning)
	case confidence >= 0.3:
		return models.SeverityRank(models.SeverityNotice)
	default:
		return models.SeverityRank(models.SeverityNone)
	}
}
