package scanner

import (
	"fmt"
	"strings"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/categories"
	"tw_scanner_backend/services/indicators"
)

// Consolidation-box amplitude ceilings per volatility bucket.
const (
	boxThresholdHigh    = 0.20
	boxThresholdDefault = 0.15
	boxThresholdLow     = 0.10

	// boxRelaxFactor widens the ceiling when institutions are buying
	// the symbol the same day.
	boxRelaxFactor = 1.33

	spikeGainPercent   = 4.0
	volumeRatioTrigger = 1.5
	lowBasePosition    = 0.30
)

var boxWindows = []int{20, 30, 40, 60}

// institutionalFloor scales the "institutions are active" bar to the
// symbol's liquidity: thin names qualify on 100k shares, heavyweights
// need half a million.
func institutionalFloor(avgVolumeLots float64) int64 {
	switch {
	case avgVolumeLots < 5000:
		return 100_000
	case avgVolumeLots < 20_000:
		return 300_000
	default:
		return 500_000
	}
}

func boxThreshold(volatility string) float64 {
	switch volatility {
	case categories.VolatilityHigh:
		return boxThresholdHigh
	case categories.VolatilityLow:
		return boxThresholdLow
	default:
		return boxThresholdDefault
	}
}

// EvaluateBreakout looks for a price leaving its tightest recent
// consolidation box with confirmation. The box is the lowest-amplitude
// window among the candidate lookbacks, measured on closes excluding
// the current bar.
func EvaluateBreakout(code, name, volatility string, series models.PriceSeries, instNet int64) (models.BreakoutResult, bool) {
	if len(series) < models.MinScanBars {
		return models.BreakoutResult{}, false
	}

	closes := series.Closes()
	volumes := series.Volumes()
	today := series[len(series)-1]
	prevClose := closes[len(closes)-2]
	if prevClose <= 0 {
		return models.BreakoutResult{}, false
	}
	changePercent := (today.Close - prevClose) / prevClose * 100

	// Tightest box among the candidate windows, today excluded.
	bestWindow := 0
	bestAmplitude := 0.0
	var boxHigh, boxLow float64
	for _, w := range boxWindows {
		if len(closes) < w+1 {
			continue
		}
		window := closes[len(closes)-1-w : len(closes)-1]
		hi, lo := window[0], window[0]
		for _, v := range window {
			if v > hi {
				hi = v
			}
			if v < lo {
				lo = v
			}
		}
		if lo <= 0 {
			continue
		}
		amplitude := (hi - lo) / lo
		if bestWindow == 0 || amplitude < bestAmplitude {
			bestWindow, bestAmplitude = w, amplitude
			boxHigh, boxLow = hi, lo
		}
	}
	if bestWindow == 0 {
		return models.BreakoutResult{}, false
	}

	avgVol30 := mean(volumes[maxInt(0, len(volumes)-31) : len(volumes)-1])
	avgVolLots := avgVol30 / 1000

	threshold := boxThreshold(volatility)
	floor := institutionalFloor(avgVolLots)
	if instNet > floor {
		threshold *= boxRelaxFactor
	}
	if bestAmplitude > threshold {
		return models.BreakoutResult{}, false
	}

	brokeBox := today.Close > boxHigh
	spiked := changePercent >= spikeGainPercent
	if !brokeBox && !spiked {
		return models.BreakoutResult{}, false
	}

	// Confirmations. At least one must fire.
	boxVolumes := volumes[len(volumes)-1-bestWindow : len(volumes)-1]
	boxAvgVol := mean(boxVolumes)
	volumeRatio := 0.0
	if boxAvgVol > 0 {
		volumeRatio = float64(today.Volume) / boxAvgVol
	}

	var tags []string
	volumeSignal := ""
	if volumeExpanding(volumes) {
		tags = append(tags, "volume_trend")
		volumeSignal = "expanding"
	}
	if volumeRatio >= volumeRatioTrigger {
		tags = append(tags, "volume_ratio")
		if volumeSignal == "" {
			volumeSignal = "surge"
		}
	}
	if instNet > floor {
		tags = append(tags, "institutional")
	}
	if upperShadowReversal(series) {
		tags = append(tags, "shadow_reversal")
	}
	if len(tags) == 0 {
		return models.BreakoutResult{}, false
	}

	lowBase := positionInRange(series, 60) < lowBasePosition
	if lowBase {
		tags = append(tags, "low_base")
	}

	reason := fmt.Sprintf("broke %d-day box high %.2f", bestWindow, boxHigh)
	if !brokeBox {
		reason = fmt.Sprintf("spiked %.1f%% out of %d-day box", changePercent, bestWindow)
	}
	reason += " (" + strings.Join(tags, ", ") + ")"

	return models.BreakoutResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      volatility,
			Price:         today.Close,
			ChangePercent: changePercent,
			Reason:        reason,
		},
		Indicators:       indicators.Snapshot(series),
		BoxDays:          bestWindow,
		BoxHigh:          boxHigh,
		BoxLow:           boxLow,
		BoxAmplitude:     bestAmplitude,
		VolumeRatio:      volumeRatio,
		VolumeSignal:     volumeSignal,
		InstitutionalNet: instNet,
		LowBase:          lowBase,
		Tags:             tags,
	}, true
}

// volumeExpanding compares the recent 5-day average volume to the 20
// days before it.
func volumeExpanding(volumes []float64) bool {
	if len(volumes) < 26 {
		return false
	}
	recent := mean(volumes[len(volumes)-5:])
	base := mean(volumes[len(volumes)-25 : len(volumes)-5])
	return base > 0 && recent > base*1.2
}

// upperShadowReversal fires when at least three consecutive down closes
// precede today and today's upper wick dwarfs its body, a classic
// shakeout-then-reclaim shape.
func upperShadowReversal(series models.PriceSeries) bool {
	if len(series) < 5 {
		return false
	}
	downs := 0
	for i := len(series) - 2; i > 0; i-- {
		if series[i].Close < series[i-1].Close {
			downs++
		} else {
			break
		}
	}
	if downs < 3 {
		return false
	}
	today := series[len(series)-1]
	body := today.Close - today.Open
	if body < 0 {
		body = -body
	}
	upperShadow := today.High - maxF(today.Open, today.Close)
	return body > 0 && upperShadow >= body*1.5
}

// positionInRange places the latest close inside the trailing n-bar
// high/low range, 0 at the low and 1 at the high.
func positionInRange(series models.PriceSeries, n int) float64 {
	if len(series) == 0 {
		return 0
	}
	start := maxInt(0, len(series)-n)
	hi, lo := series[start].High, series[start].Low
	for _, bar := range series[start:] {
		if bar.High > hi {
			hi = bar.High
		}
		if bar.Low < lo {
			lo = bar.Low
		}
	}
	if hi == lo {
		return 0.5
	}
	return (series[len(series)-1].Close - lo) / (hi - lo)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
