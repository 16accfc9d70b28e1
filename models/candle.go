package models

import "time"

// Candle is one daily price bar for a listed symbol.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is a sequence of daily bars in ascending date order.
// Calendar gaps (holidays, suspensions) are expected and tolerated.
type PriceSeries []Candle

// MinScanBars is the minimum history every pattern engine requires.
// Shorter series short-circuit to "no signal".
const MinScanBars = 60

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high column.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows returns the low column.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Volumes returns the volume column as float64 for averaging.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = float64(c.Volume)
	}
	return out
}

// Last returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// IntradayCandle is a synthesized bar for the current trading session.
type IntradayCandle struct {
	Code      string  `json:"code"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	PrevClose float64 `json:"prev_close"`
}

// Quote is a lightweight realtime snapshot from the exchange quote feed.
type Quote struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prev_close"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	ChangePercent float64 `json:"change_percent"`
}
