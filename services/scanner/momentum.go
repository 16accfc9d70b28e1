package scanner

import (
	"fmt"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/indicators"
)

const (
	momentumMinAvgLots     = 500
	momentumInstNetTrigger = 200_000
	// DefaultMomentumMinDays is the run length the cached scan uses.
	DefaultMomentumMinDays = 3
)

// EvaluateMomentum looks for a strictly rising close streak ending on
// the latest bar. Streaks on illiquid names are ignored.
func EvaluateMomentum(code, name, category string, series models.PriceSeries, minDays int, combinedNet int64) (models.MomentumResult, bool) {
	if len(series) < models.MinScanBars || minDays < 1 {
		return models.MomentumResult{}, false
	}

	closes := series.Closes()
	volumes := series.Volumes()
	today := series[len(series)-1]
	prevClose := closes[len(closes)-2]
	if prevClose <= 0 {
		return models.MomentumResult{}, false
	}

	// Count strictly consecutive up closes ending today.
	run := 0
	for i := len(closes) - 1; i > 0; i-- {
		if closes[i] > closes[i-1] {
			run++
		} else {
			break
		}
	}
	if run < minDays {
		return models.MomentumResult{}, false
	}

	avgLots := mean(volumes[len(volumes)-5:]) / 1000
	if avgLots < momentumMinAvgLots {
		return models.MomentumResult{}, false
	}

	runStart := closes[len(closes)-1-run]
	gain := 0.0
	if runStart > 0 {
		gain = (today.Close - runStart) / runStart * 100
	}

	instBuy := combinedNet > momentumInstNetTrigger
	reason := fmt.Sprintf("up %d consecutive days (+%.1f%%)", run, gain)
	if instBuy {
		reason += " with institutional buying"
	}

	return models.MomentumResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         today.Close,
			ChangePercent: (today.Close - prevClose) / prevClose * 100,
			Reason:        reason,
		},
		Indicators:       indicators.Snapshot(series),
		ConsecutiveDays:  run,
		CumulativeGain:   gain,
		AvgVolumeLots:    avgLots,
		InstitutionalBuy: instBuy,
	}, true
}
