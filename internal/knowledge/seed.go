package knowledge

import (
	"time"

	"MarketSentry/internal/domain/models"
)

// Seed returns the documented case studies the precedent store is primed
// with at startup. Vectors follow the fingerprint feature order: return z,
// volume z, transfer concentration, sentiment burst, event proximity.
func Seed() []models.Precedent {
	return []models.Precedent{
		{
			ID:      "ep-2024-02-05-btc",
			Name:    "2024-02-05 BTC coordinated dump",
			Date:    time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC),
			Asset:   "BTC",
			Pattern: "onchain_flow_anomaly",
			Vector:  [models.FingerprintDim]float64{-3.2, 4.1, 0.85, 3.4, 0.1},
			Summary: "concentrated exchange inflows minutes before a volume spike and 4% drop, amplified by a burst of near-identical bearish posts from small accounts",
			Outcome: "price recovered within 36h; flagged wallets went dormant",
		},
		{
			ID:      "ep-2023-10-16-btc",
			Name:    "2023-10-16 fake ETF approval headline",
			Date:    time.Date(2023, 10, 16, 13, 24, 0, 0, time.UTC),
			Asset:   "BTC",
			Pattern: "sentiment_manipulation",
			Vector:  [models.FingerprintDim]float64{2.8, 3.6, 0.2, 4.5, 0.0},
			Summary: "false approval headline triggered a coordinated repost wave and a 7% spike that fully retraced within the hour",
			Outcome: "retracement trapped late longs; source account suspended",
		},
		{
			ID:      "ep-2022-11-08-gen",
			Name:    "2022-11-08 insolvency rumor cascade",
			Date:    time.Date(2022, 11, 8, 16, 0, 0, 0, time.UTC),
			Asset:   "BTC",
			Pattern: "sentiment_manipulation",
			Vector:  [models.FingerprintDim]float64{-2.0, 1.5, 0.1, 5.0, 0.0},
			Summary: "amplified insolvency rumors paired with large exchange outflows drove a cross-market liquidation cascade",
			Outcome: "rumors proved substantially true; exchange halted withdrawals",
		},
		{
			ID:      "ep-2021-12-04-btc",
			Name:    "2021-12-04 weekend liquidity flush",
			Date:    time.Date(2021, 12, 4, 6, 10, 0, 0, time.UTC),
			Asset:   "BTC",
			Pattern: "event_timing_anomaly",
			Vector:  [models.FingerprintDim]float64{-3.8, 3.9, 0.7, 1.2, 0.0},
			Summary: "concentrated selling into a thin Saturday-morning book liquidated leveraged longs in minutes",
			Outcome: "20% intraday wick, partial recovery same day",
		},
	}
}
