package scanner

import (
	"fmt"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/indicators"
)

const (
	reboundMADeviation   = 0.04
	lowBaseMADeviation   = 0.05
	reboundLocalHighGain = 0.02
)

// EvaluateRebound looks for two pullback shapes worth watching: a
// healthy uptrend resting on its short moving averages with volume
// drying up, or a beaten-down base reclaiming its 20-day line.
func EvaluateRebound(code, name, category string, series models.PriceSeries) (models.ReboundResult, bool) {
	if len(series) < models.MinScanBars {
		return models.ReboundResult{}, false
	}

	closes := series.Closes()
	volumes := series.Volumes()
	today := series[len(series)-1]
	prevClose := closes[len(closes)-2]
	if prevClose <= 0 {
		return models.ReboundResult{}, false
	}

	ma10 := mean(closes[len(closes)-10:])
	ma20 := mean(closes[len(closes)-20:])
	ma60 := mean(closes[len(closes)-60:])
	position := positionInRange(series, 60)

	setup, reason := "", ""

	// Setup A: pullback onto the 10/20-day lines inside an uptrend.
	if today.Close > ma60 && ma10 > 0 && ma20 > 0 {
		nearMA10 := absF(today.Close-ma10)/ma10 <= reboundMADeviation
		nearMA20 := absF(today.Close-ma20)/ma20 <= reboundMADeviation
		volumeShrinking := mean(volumes[len(volumes)-5:]) < mean(volumes[len(volumes)-20:])
		localHigh := 0.0
		for _, bar := range series[len(series)-10:] {
			if bar.High > localHigh {
				localHigh = bar.High
			}
		}
		pulledBack := localHigh >= today.Close*(1+reboundLocalHighGain)

		if (nearMA10 || nearMA20) && volumeShrinking && pulledBack {
			setup = "pullback"
			reason = fmt.Sprintf("resting on short MAs above MA60 %.2f with shrinking volume", ma60)
		}
	}

	// Setup B: low base reclaiming the 20-day line.
	if setup == "" && position < lowBasePosition && ma20 > 0 && today.Close > ma20 {
		if (today.Close-ma20)/ma20 < lowBaseMADeviation {
			setup = "low_base"
			reason = fmt.Sprintf("reclaimed MA20 from the bottom %.0f%% of its 60-day range", position*100)
		}
	}

	if setup == "" {
		return models.ReboundResult{}, false
	}

	return models.ReboundResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         today.Close,
			ChangePercent: (today.Close - prevClose) / prevClose * 100,
			Reason:        reason,
		},
		Indicators: indicators.Snapshot(series),
		Setup:      setup,
		MA20:       ma20,
		MA60:       ma60,
		Position60: position,
	}, true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
