package models

// ScanBase carries the fields every pattern engine reports for a matched
// symbol. Engine-specific records embed it rather than reusing one
// kitchen-sink struct.
type ScanBase struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Reason        string  `json:"reason"`
}

// BreakoutResult is a consolidation-box breakout match.
type BreakoutResult struct {
	ScanBase
	Indicators       IndicatorSnapshot `json:"indicators"`
	BoxDays          int               `json:"box_days"`
	BoxHigh          float64           `json:"box_high"`
	BoxLow           float64           `json:"box_low"`
	BoxAmplitude     float64           `json:"box_amplitude"`
	VolumeRatio      float64           `json:"volume_ratio"`
	VolumeSignal     string            `json:"volume_signal"`
	InstitutionalNet int64             `json:"institutional_net"`
	LowBase          bool              `json:"low_base"`
	Tags             []string          `json:"tags"`
}

// ReboundResult is a pullback-support or low-base rebound match.
type ReboundResult struct {
	ScanBase
	Indicators IndicatorSnapshot `json:"indicators"`
	Setup      string            `json:"setup"`
	MA20       float64           `json:"ma20"`
	MA60       float64           `json:"ma60"`
	Position60 float64           `json:"position_60"`
}

// DowntrendResult flags exhaustion risk inside an uptrend.
type DowntrendResult struct {
	ScanBase
	Indicators IndicatorSnapshot `json:"indicators"`
	Warnings   []string          `json:"warnings"`
}

// MomentumResult is a consecutive-up-close run ending today.
type MomentumResult struct {
	ScanBase
	Indicators       IndicatorSnapshot `json:"indicators"`
	ConsecutiveDays  int               `json:"consecutive_days"`
	CumulativeGain   float64           `json:"cumulative_gain"`
	AvgVolumeLots    float64           `json:"avg_volume_lots"`
	InstitutionalBuy bool              `json:"institutional_buy"`
}

// PressureReleaseResult marks selling pressure that is fading.
type PressureReleaseResult struct {
	ScanBase
	Indicators     IndicatorSnapshot `json:"indicators"`
	DownDays       int               `json:"down_days"`
	DeclinePercent float64           `json:"decline_percent"`
	ShadowRatio    float64           `json:"shadow_ratio"`
}

// DivergenceResult is heavy institutional buying without price follow-through.
type DivergenceResult struct {
	ScanBase
	Indicators   IndicatorSnapshot `json:"indicators"`
	WindowDays   int               `json:"window_days"`
	NetBuyShares int64             `json:"net_buy_shares"`
	PriceChange  float64           `json:"price_change"`
	LowerShadow  bool              `json:"lower_shadow"`
}

// IntradayResult is a live in-session strength match.
type IntradayResult struct {
	ScanBase
	Volume       int64   `json:"volume"`
	RetreatRatio float64 `json:"retreat_ratio"`
}

// DividendEvent is one upcoming ex-dividend entry.
type DividendEvent struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	ExDate        string `json:"ex_date"`
	CashDividend  string `json:"cash_dividend"`
	StockDividend string `json:"stock_dividend"`
}
