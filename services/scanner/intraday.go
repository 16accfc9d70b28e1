package scanner

import (
	"fmt"

	"tw_scanner_backend/models"
)

const (
	intradayMinGainPercent = 2.0
	intradayMinVolumeLots  = 100
	intradayMaxRetreat     = 0.20
)

// EvaluateIntraday judges one synthesized in-session candle. The quick
// quote pre-filter has already kept only symbols up more than 2%; this
// pass demands a rising candle holding near its session high on real
// volume.
func EvaluateIntraday(code, name, category string, candle models.IntradayCandle) (models.IntradayResult, bool) {
	if candle.PrevClose <= 0 || candle.Close <= 0 {
		return models.IntradayResult{}, false
	}

	changePercent := (candle.Close - candle.PrevClose) / candle.PrevClose * 100
	if changePercent < intradayMinGainPercent {
		return models.IntradayResult{}, false
	}
	if candle.Close <= candle.Open || candle.Close <= candle.PrevClose {
		return models.IntradayResult{}, false
	}
	if candle.Volume < intradayMinVolumeLots {
		return models.IntradayResult{}, false
	}

	retreat := 0.0
	if rng := candle.High - candle.Low; rng > 0 {
		retreat = (candle.High - candle.Close) / rng
	}
	if retreat > intradayMaxRetreat {
		return models.IntradayResult{}, false
	}

	return models.IntradayResult{
		ScanBase: models.ScanBase{
			Code:          code,
			Name:          name,
			Category:      category,
			Price:         candle.Close,
			ChangePercent: changePercent,
			Reason:        fmt.Sprintf("up %.1f%% holding near session high", changePercent),
		},
		Volume:       candle.Volume,
		RetreatRatio: retreat,
	}, true
}
