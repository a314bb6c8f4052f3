package models

import "time"

// Bar is one daily closing price for an instrument.
type Bar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Close  float64   `json:"close"`
}
