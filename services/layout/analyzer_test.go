package layout

import (
	"math"
	"testing"

	"tw_scanner_backend/models"
)

func flowOf(nets map[string][]int64) models.InstitutionalFlowMap {
	flow := make(models.InstitutionalFlowMap)
	dates := []string{
		"2026-08-10", "2026-08-11", "2026-08-12", "2026-08-13", "2026-08-14",
		"2026-08-17", "2026-08-18", "2026-08-19", "2026-08-20", "2026-08-21",
	}
	for code, series := range nets {
		for i, net := range series {
			d := dates[i]
			flow[d] = append(flow[d], models.InstitutionalDayRecord{
				Code:       code,
				BuyShares:  maxI64(net, 0),
				SellShares: maxI64(-net, 0),
				NetShares:  net,
			})
		}
	}
	return flow
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func TestFoldPatterns_Counts(t *testing.T) {
	flow := flowOf(map[string][]int64{
		"2330": {1000, 2000, -500, 0, 3000},
	})
	patterns := FoldPatterns(flow)
	p, ok := patterns["2330"]
	if !ok {
		t.Fatal("missing pattern for 2330")
	}
	if p.BuyDays != 3 || p.SellDays != 1 || p.NeutralDays != 1 || p.TotalDays != 5 {
		t.Errorf("unexpected day counts: %+v", p)
	}
	if p.TotalNet != 5500 {
		t.Errorf("expected total net 5500, got %d", p.TotalNet)
	}
	if p.AvgBuyShares != 2000 {
		t.Errorf("expected avg buy 2000, got %.1f", p.AvgBuyShares)
	}
}

func TestFoldPatterns_SparseSymbolUsesWindowDays(t *testing.T) {
	flow := flowOf(map[string][]int64{
		"2330": {1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000},
	})
	// 8069 shows institutional volume on only 2 of the 10 window days.
	flow["2026-08-13"] = append(flow["2026-08-13"], models.InstitutionalDayRecord{
		Code: "8069", BuyShares: 50000, NetShares: 50000,
	})
	flow["2026-08-19"] = append(flow["2026-08-19"], models.InstitutionalDayRecord{
		Code: "8069", BuyShares: 50000, NetShares: 50000,
	})

	patterns := FoldPatterns(flow)
	p, ok := patterns["8069"]
	if !ok {
		t.Fatal("missing pattern for 8069")
	}
	if p.TotalDays != 10 {
		t.Errorf("expected the window's 10 trading days as denominator, got %d", p.TotalDays)
	}
	if p.BuyDays != 2 {
		t.Errorf("expected 2 buy days, got %d", p.BuyDays)
	}

	s := Score(p, models.InvestorTrust)
	if math.Abs(s.Frequency-0.2) > 1e-9 {
		t.Errorf("sparse symbol should score frequency 0.2, got %.4f", s.Frequency)
	}
	// 0.40*0.2 + 0.20*1.0 + 0.40*1.0 = 0.68
	if math.Abs(s.Score-68.0) > 1e-9 {
		t.Errorf("expected score 68, got %.4f", s.Score)
	}
}

func TestStability_SteadyBuyingScoresHigher(t *testing.T) {
	steady := stability([]float64{1000, 1000, 1000, 1000})
	erratic := stability([]float64{10, 5000, 20, 3000})
	if steady != 1 {
		t.Errorf("identical buying should score 1, got %.4f", steady)
	}
	if erratic >= steady {
		t.Errorf("erratic buying should score below steady: %.4f >= %.4f", erratic, steady)
	}
	if stability(nil) != 0 {
		t.Error("no buy days should score 0")
	}
}

func TestScore_ForeignNetVolumeCapped(t *testing.T) {
	pattern := models.LayoutPattern{
		Code: "2330", BuyDays: 8, SellDays: 2, TotalDays: 10,
		TotalNet: 150000, Stability: 0.8,
	}
	s := Score(pattern, models.InvestorForeign)
	if s.NetVolume != 1.0 {
		t.Errorf("net above cap should saturate at 1.0, got %.4f", s.NetVolume)
	}
	// 0.20*0.8 + 0.50*1.0 + 0.10*0.8 + 0.20*1.0 = 0.94
	if math.Abs(s.Score-94.0) > 1e-9 {
		t.Errorf("expected score 94.0, got %.4f", s.Score)
	}
}

func TestScore_TrustIgnoresConsistency(t *testing.T) {
	pattern := models.LayoutPattern{
		Code: "1101", BuyDays: 10, SellDays: 0, TotalDays: 10,
		TotalNet: 100000, Stability: 1.0,
	}
	s := Score(pattern, models.InvestorTrust)
	// 0.40*1.0 + 0.20*1.0 + 0.40*1.0 = 1.0
	if math.Abs(s.Score-100.0) > 1e-9 {
		t.Errorf("expected 100, got %.4f", s.Score)
	}
}

func TestQualifies_GateBindsRegardlessOfScore(t *testing.T) {
	// High frequency and stability but net negative overall.
	pattern := models.LayoutPattern{
		Code: "2610", BuyDays: 7, SellDays: 3, TotalDays: 10,
		TotalNet: -1, Stability: 1.0,
	}
	s := Score(pattern, models.InvestorTrust)
	if Qualifies(s, 0) {
		t.Error("negative total net must never qualify, whatever the score")
	}

	// Net positive but more sell days than buy days.
	pattern2 := models.LayoutPattern{
		Code: "2611", BuyDays: 3, SellDays: 7, TotalDays: 10,
		TotalNet: 90000, Stability: 1.0,
	}
	if Qualifies(Score(pattern2, models.InvestorForeign), 0) {
		t.Error("buy days must exceed sell days to qualify")
	}
}

func TestScore_NetVolumeZeroWhenNotPositive(t *testing.T) {
	pattern := models.LayoutPattern{Code: "9958", TotalDays: 10, TotalNet: -50000}
	s := Score(pattern, models.InvestorForeign)
	if s.NetVolume != 0 {
		t.Errorf("non-positive net should zero the volume sub-score, got %.4f", s.NetVolume)
	}
}

func TestAnalyze_SortedAndGated(t *testing.T) {
	flow := flowOf(map[string][]int64{
		"2330": {20000, 20000, 20000, 20000, 20000, 20000, 20000, 20000, 20000, 20000},
		"2454": {5000, 5000, -2000, 5000, 0, 5000, 5000, -1000, 5000, 5000},
		"2610": {-5000, -5000, -5000, -5000, -5000, 1000, 1000, 1000, -5000, -5000},
	})
	scores := Analyze(flow, models.InvestorForeign, 10, map[string]string{"2330": "台積電"})
	if len(scores) != 2 {
		t.Fatalf("expected 2 qualifying symbols, got %d", len(scores))
	}
	if scores[0].Code != "2330" {
		t.Errorf("expected 2330 first, got %s", scores[0].Code)
	}
	if scores[0].Name != "台積電" {
		t.Errorf("expected name lookup applied, got %q", scores[0].Name)
	}
	if scores[0].Score < scores[1].Score {
		t.Error("results not sorted descending")
	}
}

func TestIntersect(t *testing.T) {
	byCat := map[models.InvestorCategory][]models.LayoutScore{
		models.InvestorForeign: {{Code: "2330"}, {Code: "2454"}},
		models.InvestorTrust:   {{Code: "2330"}, {Code: "1101"}},
		models.InvestorDealer:  {{Code: "2330"}},
	}
	all3 := Intersect(byCat, 3)
	if len(all3) != 1 || all3[0] != "2330" {
		t.Errorf("expected only 2330 in all three, got %v", all3)
	}
	any2 := Intersect(byCat, 2)
	if len(any2) != 1 {
		t.Errorf("expected one symbol with two categories, got %v", any2)
	}
}
