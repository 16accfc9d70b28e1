package scanner

import (
	"fmt"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/indicators"
)

const (
	// DefaultDivergenceWindow and friends parameterize the cached scan.
	// The ceiling of 0.0 keeps only flat-or-falling names.
	DefaultDivergenceWindow     = 5
	DefaultDivergenceMinNetLots = 1000
	DefaultDivergenceCeiling    = 0.0

	minShadowPercent  = 0.002
	lowerShadowFactor = 0.5
)

// EvaluateDivergence flags symbols institutions are loading up on while
// the price refuses to follow: windowNet is the symbol's summed
// institutional net over the window, in shares. With requireShadow set,
// the latest candle must also carry a significant lower shadow.
func EvaluateDivergence(code, name, category string, series models.PriceSeries, windowDays int, windowNet int64, minNetLots int, priceCeiling float64, requireShadow bool) (models.DivergenceResult, bool) {
	if len(series) < models.MinScanBars || windowDays < 1 || len(series) <= windowDays {
		return models.DivergenceResult{}, false
	}

	if windowNet < int64(minNetLots)*1000 {
		return models.DivergenceResult{}, false
	}

	closes := series.Closes()
	today := series[len(series)-1]
	prevClose := closes[len(closes)-2]
	windowStart := closes[len(closes)-1-windowDays]
	if prevClose <= 0 || windowStart <= 0 {
		return models.DivergenceResult{}, false
	}

	priceChange := (today.Close - windowStart) / windowStart * 100
	if priceChange > priceCeiling {
		return models.DivergenceResult{}, false
	}

	// A lower shadow at least half the body, or 0.2% of the close on a
	// doji, hints the buying is absorbing supply.
	body := absF(today.Close - today.Open)
	lowerShadow := minF(today.Open, today.Close) - today.Low
	hasLowerShadow := (body > 0 && lowerShadow >= body*lowerShadowFactor) ||
		lowerShadow >= today.Close*minShadowPercent
	if requireShadow && !hasLowerShadow {
		return models.DivergenceResult{}, false
	}

	return models.DivergenceResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         today.Close,
			ChangePercent: (today.Close - prevClose) / prevClose * 100,
			Reason: fmt.Sprintf("institutions net bought %d lots over %d days while price moved %.1f%%",
				windowNet/1000, windowDays, priceChange),
		},
		Indicators:   indicators.Snapshot(series),
		WindowDays:   windowDays,
		NetBuyShares: windowNet,
		PriceChange:  priceChange,
		LowerShadow:  hasLowerShadow,
	}, true
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
