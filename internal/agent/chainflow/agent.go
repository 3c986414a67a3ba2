package chainflow

import (
	"context"
	"fmt"
	"strings"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/domain/service"
	"MarketSentry/internal/services/features"
)

const (
	// uncorroboratedCap bounds confidence when on-chain evidence stands
	// alone. A single whale moving coins is routine; without a market or
	// social echo it must not read as manipulation.
	uncorroboratedCap = 0.25

	// usdScale is the transfer volume at which the size score reaches 0.5.
	usdScale = 25_000_000
)

// Agent scores on-chain flow anomalies: unusual large-transfer volume,
// sender concentration, and exchange inflows.
type Agent struct{}

func New() *Agent { return &Agent{} }

func (a *Agent) Name() string    { return "chainflow" }
func (a *Agent) Pattern() string { return "onchain_flow_anomaly" }

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

	if len(mc.Transfers) == 0 {
		sig.Severity = models.SeverityNone
		sig.Reasoning = "no large on-chain transfers in window"
		return sig, nil
	}

	var totalUSD, inflowUSD float64
	for _, t := range mc.Transfers {
		totalUSD += t.USDValue
		if t.ToExchange {
			inflowUSD += t.USDValue
		}
	}
	conc := features.Concentration(mc.Transfers)
	inflowRatio := 0.0
	if totalUSD > 0 {
		inflowRatio = inflowUSD / totalUSD
	}
	sizeScore := features.Squash(totalUSD, usdScale)

	volZ := features.VolumeZ(mc.Candles)
	burst := features.BurstScore(mc.Posts, 10)

	sig.Evidence["transfer_total_usd"] = totalUSD
	sig.Evidence["transfer_concentration"] = conc
	sig.Evidence["exchange_inflow_ratio"] = inflowRatio
	if volZ != 0 {
		sig.Evidence["volume_z"] = volZ
	}
	if mc.ExchangeNetflowUSD != 0 {
		sig.Evidence["exchange_netflow_usd"] = mc.ExchangeNetflowUSD
	}
	if burst != 0 {
		sig.Evidence["social_burst"] = burst
	}

	sig.AnomalyScore = 0.4*sizeScore + 0.3*conc + 0.3*inflowRatio

	confidence := features.Clamp01(
		0.35*sizeScore +
			0.20*conc +
			0.25*inflowRatio +
			0.20*features.Squash(maxf(volZ, 0), 3),
	)

	// corroboration check: did the market or the crowd react?
	corroborated := volZ >= 2 || burst >= 1
	if !corroborated && confidence > uncorroboratedCap {
		confidence = uncorroboratedCap
	}
	sig.Confidence = confidence
	sig.Severity = severityFor(confidence)
	sig.Reasoning = a.explain(mc, totalUSD, conc, inflowRatio, volZ, burst, corroborated)

	return sig, nil
}

func (a *Agent) Validate(sig models.Signal) bool {
	return service.ValidateSignal(sig) && sig.Agent == a.Name()
}

func (a *Agent) explain(mc *models.MarketContext, totalUSD, conc, inflow, volZ, burst float64, corroborated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d large transfer(s) totaling $%.1fM in window", len(mc.Transfers), totalUSD/1e6)
	if conc >= 0.5 {
		fmt.Fprintf(&b, "; top transfer holds %.0f%% of volume", conc*100)
	}
	if inflow > 0 {
		fmt.Fprintf(&b, "; %.0f%% flowing into exchanges", inflow*100)
	}
	if corroborated {
		fmt.Fprintf(&b, "; corroborated by market/social reaction (volume z=%.1f, burst=%.1f)", volZ, burst)
	} else {
		b.WriteString("; no corroborating market or social reaction, treating as routine whale movement")
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

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
