package models

// Requests for the detection HTTP endpoints. Defined in domain for reuse by
// handlers and tests.

type AssessRequest struct {
	Asset  string `query:"asset" json:"asset" validate:"required"`
	Window string `query:"window" json:"window" default:"1h" validate:"oneof=15m 1h 4h 24h"`
}

type SignalsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Agent string `query:"agent" json:"agent" default:"all" validate:"oneof=all chainflow sentiment calendar"`
}

type PrecedentsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=50"`
}

type InterventionsRequest struct {
	Asset string `query:"asset" json:"asset"`
	Limit int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}
