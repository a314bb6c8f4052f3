package models

// Requests for strategy HTTP endpoints.

type DensityRequest struct {
	N int `query:"n" json:"n" default:"100" validate:"gte=1,lte=100"`
}

type RegimeRequest struct {
	Limit int `query:"limit" json:"limit" default:"250" validate:"gte=1,lte=10000"`
}

// BarRequest is one close; Time is a date, RFC3339 or unix seconds/ms.
type BarRequest struct {
	Symbol string  `json:"symbol" validate:"required,ticker"`
	Time   string  `json:"time" validate:"required"`
	Close  float64 `json:"close" validate:"required,gt=0"`
}

type BarBatchRequest struct {
	Bars []BarRequest `json:"bars" validate:"required,min=1,max=5000,dive"`
}
