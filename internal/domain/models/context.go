package models

import "time"

// Candle represents an OHLCV record used for return/volume features.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Transfer is a single large on-chain transfer reported by the chain connector.
type Transfer struct {
	TxHash       string
	Asset        string
	From         string
	To           string
	FromEntity   string // labeled entity, e.g. "whale_0x3f", "" if unknown
	ToEntity     string // labeled entity, e.g. "exchange:binance"
	Amount       float64
	USDValue     float64
	Timestamp    time.Time
	ToExchange   bool
	FromExchange bool
}

// SocialPost is a single social media message scored by the social connector.
type SocialPost struct {
	ID        string
	Source    string // "x", "telegram"
	Author    string
	Followers int
	Text      string
	Sentiment float64 // [-1, 1]
	Timestamp time.Time
}

// MacroEvent is a scheduled macro/calendar event (CPI print, FOMC, expiry).
type MacroEvent struct {
	Name       string
	Country    string
	Importance string // "low", "medium", "high"
	Scheduled  time.Time
}

// MarketContext is the per-asset snapshot handed to every detection agent.
// Connectors that failed contribute empty slices; agents treat missing
// categories as absence of evidence.
type MarketContext struct {
	Asset     string
	Timestamp time.Time
	Window    time.Duration

	Candles   []Candle
	Transfers []Transfer
	Posts     []SocialPost
	Events    []MacroEvent

	// ExchangeNetflowUSD is the aggregate USD netflow into exchanges over
	// the window, positive for net inflow. Zero when the flow connector
	// was unavailable.
	ExchangeNetflowUSD float64
}

// BaselineUSD is the trailing average large-transfer value used as the
// normalization base for flow z-scores. Zero means no baseline available.
func (mc *MarketContext) BaselineUSD() float64 {
	if len(mc.Transfers) == 0 {
		return 0
	}
	var sum float64
	for _, t := range mc.Transfers {
		sum += t.USDValue
	}
	return sum / float64(len(mc.Transfers))
}
