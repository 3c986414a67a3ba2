package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/domain/service"
	"MarketSentry/internal/services/features"
	"MarketSentry/pkg/util"
)

const uncorroboratedCap = 0.25

// Agent correlates market anomalies with the macro calendar and liquidity
// regime. An anomaly timed against a scheduled print, or parked in a
// thin-liquidity window, is more suspicious than the same move at a busy
// weekday noon.
type Agent struct{}

func New() *Agent { return &Agent{} }

func (a *Agent) Name() string    { return "calendar" }
func (a *Agent) Pattern() string { return "event_timing_anomaly" }

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

	volZ := features.VolumeZ(mc.Candles)
	retZ := features.ReturnZ(mc.Candles)
	anomaly := features.Clamp01(features.Squash(maxf(abs(volZ), abs(retZ)), 3))

	if anomaly < 0.2 && len(mc.Transfers) == 0 {
		sig.Severity = models.SeverityNone
		sig.Reasoning = "no market anomaly to correlate with calendar or liquidity regime"
		return sig, nil
	}

	proximity, nearest := eventProximity(mc.Timestamp, mc.Window, mc.Events)
	thin := thinLiquidity(mc.Timestamp)

	sig.Evidence["anomaly"] = anomaly
	sig.Evidence["event_proximity"] = proximity
	sig.Evidence["thin_liquidity"] = thin
	if volZ != 0 {
		sig.Evidence["volume_z"] = volZ
	}

	sig.AnomalyScore = anomaly * features.Clamp01(proximity+thin)

	confidence := features.Clamp01(anomaly * (0.6*proximity + 0.4*thin) * 1.4)

	// timing alone is circumstantial without a material anomaly behind it
	corroborated := anomaly >= 0.4 && (proximity >= 0.5 || thin >= 0.5)
	if !corroborated && confidence > uncorroboratedCap {
		confidence = uncorroboratedCap
	}
	sig.Confidence = confidence
	sig.Severity = severityFor(confidence)
	sig.Reasoning = a.explain(anomaly, proximity, thin, nearest, mc.Timestamp)

	return sig, nil
}

func (a *Agent) Validate(sig models.Signal) bool {
	return service.ValidateSignal(sig) && sig.Agent == a.Name()
}

// eventProximity scores how close the context timestamp sits to the nearest
// important scheduled event, scaled by importance.
func eventProximity(now time.Time, window time.Duration, events []models.MacroEvent) (float64, string) {
	if window <= 0 {
		window = time.Hour
	}
	var best float64
	var name string
	for _, e := range events {
		dt := e.Scheduled.Sub(now)
		if dt < 0 {
			dt = -dt
		}
		if dt > window {
			continue
		}
		closeness := 1 - float64(dt)/float64(window)
		score := closeness * importanceWeight(e.Importance)
		if score > best {
			best = score
			name = e.Name
		}
	}
	return best, name
}

func importanceWeight(imp string) float64 {
	switch imp {
	case "high":
		return 1.0
	case "medium":
		return 0.6
	default:
		return 0.3
	}
}

// thinLiquidity scores weekends and the overnight UTC lull where books are
// shallow and small flows move price.
func thinLiquidity(t time.Time) float64 {
	if util.IsWeekend(t) {
		return 1.0
	}
	h := t.UTC().Hour()
	if h >= 2 && h < 6 {
		return 0.7
	}
	return 0.0
}

func (a *Agent) explain(anomaly, proximity, thin float64, nearest string, ts time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "market anomaly %.2f at %s", anomaly, ts.UTC().Format(time.RFC3339))
	if nearest != "" {
		fmt.Fprintf(&b, "; within window of scheduled event %q (proximity %.2f)", nearest, proximity)
	} else {
		b.WriteString("; no scheduled macro event nearby")
	}
	switch {
	case thin >= 1:
		b.WriteString("; weekend thin-liquidity regime")
	case thin > 0:
		b.WriteString("; overnight thin-liquidity window")
	default:
		b.WriteString("; normal liquidity hours")
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

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
