package repository

// IsValidTimeframe returns true if tf is a supported candle resolution.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1s, TF1m, TF5m:
		return true
	default:
		return false
	}
}

// DefaultTimeframe is the resolution agents analyze at.
func DefaultTimeframe() Timeframe { return TF1m }
