package models

// IndicatorSnapshot holds the latest value of each configured indicator
// for one symbol. A nil field means the symbol's history was too short
// to compute that indicator; predicates that reference a nil field must
// fail closed (the symbol is excluded, never matched by default).
type IndicatorSnapshot struct {
	K          *float64 `json:"k"`
	D          *float64 `json:"d"`
	RSI        *float64 `json:"rsi"`
	MACDDif    *float64 `json:"macd_dif"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_hist"`
	Bias       *float64 `json:"bias"`
	BBUpper    *float64 `json:"bb_upper"`
	BBMid      *float64 `json:"bb_mid"`
	BBLower    *float64 `json:"bb_lower"`
	BBWidth    *float64 `json:"bb_width"`
}
