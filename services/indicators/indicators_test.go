package indicators

import (
	"math"
	"testing"

	"tw_scanner_backend/models"
)

func constantSeries(n int, price float64) (highs, lows, closes []float64) {
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = price
		lows[i] = price
		closes[i] = price
	}
	return
}

func TestShortSeries_AllNil(t *testing.T) {
	highs, lows, closes := constantSeries(10, 100)

	if k, d := Stochastic(highs, lows, closes, KDPeriod); k != nil || d != nil {
		t.Error("expected nil stochastic on 10 bars")
	}
	if r := RSI(closes, RSIPeriod); r != nil {
		t.Error("expected nil RSI on 10 bars")
	}
	if dif, sig, hist := MACD(closes, MACDFast, MACDSlow, MACDSignal); dif != nil || sig != nil || hist != nil {
		t.Error("expected nil MACD on 10 bars")
	}
	if b := Bias(closes, BiasPeriod); b != nil {
		t.Error("expected nil bias on 10 bars")
	}
	if up, mid, lo, w := Bollinger(closes, BollingerPeriod, BollingerMult); up != nil || mid != nil || lo != nil || w != nil {
		t.Error("expected nil bollinger on 10 bars")
	}
}

func TestRSI_AllGains_Nil(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if r := RSI(closes, RSIPeriod); r != nil {
		t.Errorf("expected nil RSI with zero average loss, got %v", *r)
	}
}

func TestRSI_AllLosses_Zero(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	r := RSI(closes, RSIPeriod)
	if r == nil {
		t.Fatal("expected RSI on strictly falling series")
	}
	if *r != 0 {
		t.Errorf("expected RSI 0 on strictly falling series, got %.4f", *r)
	}
}

func TestRSI_MixedSeries_InRange(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3)
	}
	r := RSI(closes, RSIPeriod)
	if r == nil {
		t.Fatal("expected RSI on mixed series")
	}
	if *r <= 0 || *r >= 100 {
		t.Errorf("RSI out of range: %.4f", *r)
	}
}

func TestStochastic_ClosesAtHigh_NearHundred(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 110 + float64(i)
		lows[i] = 90 + float64(i)
		closes[i] = highs[i]
	}
	k, d := Stochastic(highs, lows, closes, KDPeriod)
	if k == nil || d == nil {
		t.Fatal("expected stochastic values")
	}
	if *k < 95 {
		t.Errorf("expected K near 100 when closing at window highs, got %.2f", *k)
	}
	if *d > *k {
		t.Errorf("D should lag K on a rising oscillator: K=%.2f D=%.2f", *k, *d)
	}
}

func TestStochastic_FlatWindow_StaysAtFifty(t *testing.T) {
	highs, lows, closes := constantSeries(30, 50)
	k, d := Stochastic(highs, lows, closes, KDPeriod)
	if k == nil || d == nil {
		t.Fatal("expected stochastic values")
	}
	if math.Abs(*k-50) > 1e-9 || math.Abs(*d-50) > 1e-9 {
		t.Errorf("flat series should hold the 50 midline, got K=%.4f D=%.4f", *k, *d)
	}
}

func TestMACD_ConstantSeries_Zero(t *testing.T) {
	_, _, closes := constantSeries(50, 100)
	dif, sig, hist := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if dif == nil || sig == nil || hist == nil {
		t.Fatal("expected MACD values on 50 bars")
	}
	if *dif != 0 || *sig != 0 || *hist != 0 {
		t.Errorf("expected zero MACD on constant series, got dif=%.6f sig=%.6f hist=%.6f", *dif, *sig, *hist)
	}
}

func TestBias_ConstantSeries_Zero(t *testing.T) {
	_, _, closes := constantSeries(30, 80)
	b := Bias(closes, BiasPeriod)
	if b == nil {
		t.Fatal("expected bias value")
	}
	if *b != 0 {
		t.Errorf("expected zero bias, got %.4f", *b)
	}
}

func TestBollinger_ConstantSeries_CollapsedBands(t *testing.T) {
	_, _, closes := constantSeries(30, 77)
	up, mid, lo, w := Bollinger(closes, BollingerPeriod, BollingerMult)
	if up == nil || mid == nil || lo == nil || w == nil {
		t.Fatal("expected bollinger values")
	}
	if *up != 77 || *mid != 77 || *lo != 77 {
		t.Errorf("expected collapsed bands at 77, got %.2f/%.2f/%.2f", *up, *mid, *lo)
	}
	if *w != 0 {
		t.Errorf("expected zero width, got %.6f", *w)
	}
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got := SMA(values, 3)
	if got == nil {
		t.Fatal("expected SMA")
	}
	if *got != 4 {
		t.Errorf("expected 4, got %.4f", *got)
	}
	if SMA(values, 6) != nil {
		t.Error("expected nil SMA when period exceeds length")
	}
}

func TestSnapshot_FullHistory_AllPopulated(t *testing.T) {
	series := make(models.PriceSeries, 100)
	for i := range series {
		c := 100 + 10*math.Sin(float64(i)/5)
		series[i] = models.Candle{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	snap := Snapshot(series)
	if snap.K == nil || snap.D == nil || snap.RSI == nil || snap.MACDDif == nil ||
		snap.MACDSignal == nil || snap.MACDHist == nil || snap.Bias == nil ||
		snap.BBUpper == nil || snap.BBMid == nil || snap.BBLower == nil || snap.BBWidth == nil {
		t.Errorf("expected fully populated snapshot on 100 bars: %+v", snap)
	}
}
