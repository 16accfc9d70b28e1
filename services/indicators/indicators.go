package indicators

import (
	"math"

	"tw_scanner_backend/models"
)

// Default parameters used by the snapshot builder.
const (
	KDPeriod        = 9
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BiasPeriod      = 20
	BollingerPeriod = 20
	BollingerMult   = 2.0
)

func ptr(v float64) *float64 { return &v }

// SMA returns the simple moving average of the last period values, or
// nil when the series is too short.
func SMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return ptr(sum / float64(period))
}

// EMASeries computes the full exponential moving average series with the
// conventional alpha 2/(period+1), seeded by the first value.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Stochastic returns the latest K and D of the 9-bar stochastic
// oscillator. RSV is clipped to [0,100] and both lines start from 50
// with 1/3 smoothing. Returns nils when history is shorter than
// period+2 bars.
func Stochastic(highs, lows, closes []float64, period int) (k, d *float64) {
	n := len(closes)
	if n < period+2 || len(highs) != n || len(lows) != n {
		return nil, nil
	}

	kv, dv := 50.0, 50.0
	for i := period - 1; i < n; i++ {
		hi, lo := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		rsv := 50.0
		if hi > lo {
			rsv = (closes[i] - lo) / (hi - lo) * 100
		}
		if rsv < 0 {
			rsv = 0
		} else if rsv > 100 {
			rsv = 100
		}
		kv = kv*2/3 + rsv/3
		dv = dv*2/3 + kv/3
	}
	return ptr(kv), ptr(dv)
}

// RSI returns the latest Wilder-smoothed relative strength index.
// Returns nil when history is shorter than period+2 bars or the average
// loss is zero (the ratio is undefined, not 100).
func RSI(closes []float64, period int) *float64 {
	if len(closes) < period+2 {
		return nil
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		return nil
	}
	rs := avgGain / avgLoss
	return ptr(100 - 100/(1+rs))
}

// MACD returns the latest DIF, signal and histogram of the
// fast/slow/signal convergence-divergence. Returns nils when history is
// shorter than slow+signal bars.
func MACD(closes []float64, fast, slow, signal int) (dif, sig, hist *float64) {
	if len(closes) < slow+signal {
		return nil, nil, nil
	}

	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)
	difs := make([]float64, len(closes))
	for i := range closes {
		difs[i] = emaFast[i] - emaSlow[i]
	}
	deas := EMASeries(difs, signal)

	last := len(closes) - 1
	return ptr(difs[last]), ptr(deas[last]), ptr(difs[last] - deas[last])
}

// Bias returns the latest percentage deviation of close from its
// period SMA. Returns nil when history is shorter than period+2 bars.
func Bias(closes []float64, period int) *float64 {
	if len(closes) < period+2 {
		return nil
	}
	ma := SMA(closes, period)
	if ma == nil || *ma == 0 {
		return nil
	}
	return ptr((closes[len(closes)-1] - *ma) / *ma * 100)
}

// Bollinger returns the latest upper/mid/lower bands and the relative
// band width (upper-lower)/mid. Uses population standard deviation.
// Returns nils when history is shorter than period+2 bars.
func Bollinger(closes []float64, period int, mult float64) (upper, mid, lower, width *float64) {
	if len(closes) < period+2 {
		return nil, nil, nil, nil
	}

	window := closes[len(closes)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	variance := 0.0
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(variance / float64(period))

	up := mean + mult*sd
	lo := mean - mult*sd
	var w *float64
	if mean != 0 {
		w = ptr((up - lo) / mean)
	}
	return ptr(up), ptr(mean), ptr(lo), w
}

// Snapshot computes every configured indicator's latest value over a
// price series. Each indicator degrades independently to nil when the
// series is too short for it.
func Snapshot(series models.PriceSeries) models.IndicatorSnapshot {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	var snap models.IndicatorSnapshot
	snap.K, snap.D = Stochastic(highs, lows, closes, KDPeriod)
	snap.RSI = RSI(closes, RSIPeriod)
	snap.MACDDif, snap.MACDSignal, snap.MACDHist = MACD(closes, MACDFast, MACDSlow, MACDSignal)
	snap.Bias = Bias(closes, BiasPeriod)
	snap.BBUpper, snap.BBMid, snap.BBLower, snap.BBWidth = Bollinger(closes, BollingerPeriod, BollingerMult)
	return snap
}
