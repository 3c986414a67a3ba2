package models

// Tick is a single trade print from the exchange stream. Timestamp is unix
// seconds, matching the wire format of the upstream feed.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}
