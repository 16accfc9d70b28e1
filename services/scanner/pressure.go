package scanner

import (
	"fmt"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/indicators"
)

const (
	// DefaultPressureMinDays is the down-streak length the cached scan uses.
	DefaultPressureMinDays = 3

	pressureDeclinePercent = 10.0
	tinyShadowPercent      = 0.003
)

// EvaluatePressureRelease looks for selling pressure that is visibly
// fading: a sustained decline whose latest bar no longer prints the
// long upper wicks of active distribution.
func EvaluatePressureRelease(code, name, category string, series models.PriceSeries, minDays int) (models.PressureReleaseResult, bool) {
	if len(series) < models.MinScanBars || minDays < 1 {
		return models.PressureReleaseResult{}, false
	}

	closes := series.Closes()
	today := series[len(series)-1]
	yesterday := series[len(series)-2]
	prevClose := closes[len(closes)-2]
	if prevClose <= 0 || today.Close <= 0 {
		return models.PressureReleaseResult{}, false
	}

	// Consecutive down closes ending today.
	downDays := 0
	for i := len(closes) - 1; i > 0; i-- {
		if closes[i] < closes[i-1] {
			downDays++
		} else {
			break
		}
	}

	decline3 := 0.0
	if base := closes[len(closes)-4]; base > 0 {
		decline3 = (base - today.Close) / base * 100
	}

	if downDays < minDays && decline3 < pressureDeclinePercent {
		return models.PressureReleaseResult{}, false
	}

	todayShadow := today.High - maxF(today.Open, today.Close)
	yesterdayShadow := yesterday.High - maxF(yesterday.Open, yesterday.Close)
	shadowFading := todayShadow < yesterdayShadow || todayShadow < today.Close*tinyShadowPercent
	if !shadowFading {
		return models.PressureReleaseResult{}, false
	}

	shadowRatio := 0.0
	if rng := today.High - today.Low; rng > 0 {
		shadowRatio = todayShadow / rng
	}

	reason := fmt.Sprintf("down %d days with fading upper shadows", downDays)
	if decline3 >= pressureDeclinePercent {
		reason = fmt.Sprintf("%.1f%% three-day decline with fading upper shadows", decline3)
	}

	return models.PressureReleaseResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         today.Close,
			ChangePercent: (today.Close - prevClose) / prevClose * 100,
			Reason:        reason,
		},
		Indicators:     indicators.Snapshot(series),
		DownDays:       downDays,
		DeclinePercent: decline3,
		ShadowRatio:    shadowRatio,
	}, true
}
