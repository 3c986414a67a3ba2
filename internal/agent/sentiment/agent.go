package sentiment

import (
	"context"
	"fmt"
	"strings"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/domain/service"
	"MarketSentry/internal/services/features"
)

const (
	// minPosts below which the window is too quiet to score.
	minPosts = 10

	// lowFollowerCutoff marks accounts small enough that coordinated
	// near-duplicate posting from them reads as astroturfing.
	lowFollowerCutoff = 1000

	uncorroboratedCap = 0.25
)

// Agent scores sentiment manipulation: posting bursts, coordinated
// near-duplicate content from small accounts, and sentiment that diverges
// from price action.
type Agent struct{}

func New() *Agent { return &Agent{} }

func (a *Agent) Name() string    { return "sentiment" }
func (a *Agent) Pattern() string { return "sentiment_manipulation" }

func (a *Agent) Analyze(ctx context.Context, mc *models.MarketContext) (models.Signal, error) {
	if err := ctx.Err(); err != nil {
		return models.Signal{}, err
	}

	sig := models.Signal{
		Agent:     a.Name(),
		Pattern:   a.Pattern(),
		Asset:     mc.Asset,
		Timestamp: mc.Timestamp,
		Evidence:  map[string]float64{},
	}

	if len(mc.Posts) < minPosts {
		sig.Severity = models.SeverityNone
		sig.Reasoning = fmt.Sprintf("only %d posts in window, too quiet to score", len(mc.Posts))
		return sig, nil
	}

	burst := features.BurstScore(mc.Posts, minPosts)
	coord := coordinationScore(mc.Posts)
	meanSent := features.MeanSentiment(mc.Posts)
	div := divergenceScore(meanSent, mc.Candles)

	sig.Evidence["post_burst"] = burst
	sig.Evidence["coordination"] = coord
	sig.Evidence["mean_sentiment"] = meanSent
	if div != 0 {
		sig.Evidence["price_divergence"] = div
	}

	burstScore := features.Squash(burst, 2)
	sig.AnomalyScore = 0.4*burstScore + 0.4*coord + 0.2*div

	confidence := features.Clamp01(0.35*burstScore + 0.40*coord + 0.25*div)

	// a burst alone is just news; manipulation needs the burst to be
	// coordinated or contradicted by price
	corroborated := coord >= 0.3 || div >= 0.3
	if !corroborated && confidence > uncorroboratedCap {
		confidence = uncorroboratedCap
	}
	sig.Confidence = confidence
	sig.Severity = severityFor(confidence)
	sig.Reasoning = a.explain(len(mc.Posts), burst, coord, meanSent, div, corroborated)

	return sig, nil
}

func (a *Agent) Validate(sig models.Signal) bool {
	return service.ValidateSignal(sig) && sig.Agent == a.Name()
}

// coordinationScore blends author concentration with near-duplicate text
// from low-follower accounts.
func coordinationScore(posts []models.SocialPost) float64 {
	diversity := features.AuthorDiversity(posts)

	texts := make(map[string]int)
	var lowFollower int
	for _, p := range posts {
		key := normalizeText(p.Text)
		if key == "" {
			continue
		}
		texts[key]++
		if p.Followers < lowFollowerCutoff {
			lowFollower++
		}
	}
	var dups int
	for _, n := range texts {
		if n > 1 {
			dups += n
		}
	}
	dupRatio := float64(dups) / float64(len(posts))
	lowRatio := float64(lowFollower) / float64(len(posts))

	return features.Clamp01(0.4*(1-diversity) + 0.4*dupRatio + 0.2*lowRatio*dupRatio)
}

// divergenceScore is high when crowd sentiment points one way and price the
// other. Hype into a falling market is the classic distraction pattern.
func divergenceScore(meanSent float64, candles []models.Candle) float64 {
	rets := features.LogReturns(candles)
	if len(rets) == 0 {
		return 0
	}
	var total float64
	for _, r := range rets {
		total += r
	}
	if meanSent == 0 || total == 0 {
		return 0
	}
	if (meanSent > 0) == (total > 0) {
		return 0
	}
	return features.Clamp01(abs(meanSent)) * features.Squash(abs(total)*100, 2)
}

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

func (a *Agent) explain(n int, burst, coord, meanSent, div float64, corroborated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d posts in window, burst score %.1f, coordination %.2f, mean sentiment %+.2f", n, burst, coord, meanSent)
	if div > 0 {
		fmt.Fprintf(&b, "; sentiment diverges from price action (%.2f)", div)
	}
	if !corroborated {
		b.WriteString("; activity looks organic, no coordination or price divergence")
	}
	return b.String()
}

func severityFor(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return models.SeverityCritical
	case confidence >= 0.6:
		return models.SeverityWarning
	case confidence >= 0.3:
		return models.SeverityNotice
	default:
		return models.SeverityNone
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
