package scanner

import (
	"strings"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/indicators"
)

const (
	churnHighProximity = 0.95
	churnVolumeRatio   = 1.5
	churnBodyPercent   = 0.01
	exhaustionKCeiling = 80.0
	exhaustionRSIFloor = 60.0
)

// EvaluateDowntrend flags early exhaustion inside a stock that is still
// technically in an uptrend (above its 20-day line). It never fires on
// names already below trend; those are someone else's problem.
func EvaluateDowntrend(code, name, category string, series models.PriceSeries) (models.DowntrendResult, bool) {
	if len(series) < models.MinScanBars {
		return models.DowntrendResult{}, false
	}

	closes := series.Closes()
	volumes := series.Volumes()
	today := series[len(series)-1]
	prevClose := closes[len(closes)-2]
	ma20 := mean(closes[len(closes)-20:])
	if prevClose <= 0 || today.Close <= ma20 {
		return models.DowntrendResult{}, false
	}

	var warnings []string

	// High-level churn: hugging the 20-day high on heavy volume with a
	// tiny body says distribution, not accumulation.
	high20 := 0.0
	for _, bar := range series[len(series)-20:] {
		if bar.High > high20 {
			high20 = bar.High
		}
	}
	avgVol20 := mean(volumes[len(volumes)-21 : len(volumes)-1])
	body := absF(today.Close-today.Open) / today.Open
	if today.Close > high20*churnHighProximity &&
		avgVol20 > 0 && float64(today.Volume) > avgVol20*churnVolumeRatio &&
		body < churnBodyPercent {
		warnings = append(warnings, "high-level churn on heavy volume")
	}

	// Oscillator exhaustion: K crossing under D while RSI still runs hot.
	snap := indicators.Snapshot(series)
	if snap.K != nil && snap.D != nil && snap.RSI != nil {
		if *snap.K < *snap.D && *snap.K < exhaustionKCeiling && *snap.RSI > exhaustionRSIFloor {
			warnings = append(warnings, "stochastic rolling over with RSI still elevated")
		}
	}

	if len(warnings) == 0 {
		return models.DowntrendResult{}, false
	}

	return models.DowntrendResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         today.Close,
			ChangePercent: (today.Close - prevClose) / prevClose * 100,
			Reason:        strings.Join(warnings, "; "),
		},
		Indicators: snap,
		Warnings:   warnings,
	}, true
}
