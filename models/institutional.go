package models

// InvestorCategory identifies one of the three institutional investor
// groups published daily by the exchange.
type InvestorCategory string

const (
	InvestorForeign InvestorCategory = "foreign"
	InvestorTrust   InvestorCategory = "trust"
	InvestorDealer  InvestorCategory = "dealer"
)

// AllInvestorCategories lists the categories in publication order.
var AllInvestorCategories = []InvestorCategory{InvestorForeign, InvestorTrust, InvestorDealer}

// InstitutionalDayRecord is one symbol's buy/sell totals for one investor
// category on one trading day. Volumes are in shares.
type InstitutionalDayRecord struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	BuyShares  int64  `json:"buy_shares"`
	SellShares int64  `json:"sell_shares"`
	NetShares  int64  `json:"net_shares"`
}

// InstitutionalFlowMap holds one category's records keyed by trading date
// (YYYY-MM-DD). Past dates are immutable once fetched; the current date
// may be refreshed.
type InstitutionalFlowMap map[string][]InstitutionalDayRecord

// LayoutPattern summarizes one category's behavior on one symbol over a
// lookback window, produced by folding its flow map.
type LayoutPattern struct {
	Code          string  `json:"code"`
	BuyDays       int     `json:"buy_days"`
	SellDays      int     `json:"sell_days"`
	NeutralDays   int     `json:"neutral_days"`
	TotalDays     int     `json:"total_days"`
	TotalNet      int64   `json:"total_net"`
	AvgBuyShares  float64 `json:"avg_buy_shares"`
	AvgSellShares float64 `json:"avg_sell_shares"`
	Stability     float64 `json:"stability"`
}

// LayoutScore is the weighted 0-100 accumulation score for one symbol
// under one investor category's weight profile. Derived on demand,
// never persisted.
type LayoutScore struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Category    InvestorCategory `json:"category"`
	Score       float64          `json:"score"`
	Frequency   float64          `json:"frequency"`
	NetVolume   float64          `json:"net_volume"`
	Stability   float64          `json:"stability"`
	Consistency float64          `json:"consistency"`
	Pattern     LayoutPattern    `json:"pattern"`
}
