package layout

import (
	"sort"

	"github.com/montanaflynn/stats"

	"tw_scanner_backend/models"
)

// NetVolumeCapShares is where the net-volume sub-score saturates at 1.0.
const NetVolumeCapShares = 100000

// WeightProfile distributes the four sub-scores for one investor
// category. Weights sum to 1.0.
type WeightProfile struct {
	Frequency   float64
	NetVolume   float64
	Stability   float64
	Consistency float64
}

// Profiles reflect how each investor group accumulates: foreign
// positions are judged mostly by size, trusts by persistence and
// steadiness, dealers by persistence and size.
var Profiles = map[models.InvestorCategory]WeightProfile{
	models.InvestorForeign: {Frequency: 0.20, NetVolume: 0.50, Stability: 0.10, Consistency: 0.20},
	models.InvestorTrust:   {Frequency: 0.40, NetVolume: 0.20, Stability: 0.40, Consistency: 0},
	models.InvestorDealer:  {Frequency: 0.50, NetVolume: 0.30, Stability: 0.20, Consistency: 0},
}

// FoldPatterns collapses one category's flow map into one accumulation
// pattern per symbol. TotalDays is the window's trading-day count, not
// the symbol's record count: a name institutions touched on 2 of 10
// days has frequency 0.2, not 1.0.
func FoldPatterns(flow models.InstitutionalFlowMap) map[string]models.LayoutPattern {
	windowDays := len(flow)
	type acc struct {
		pattern  models.LayoutPattern
		buyVols  []float64
		sellVols []float64
	}
	accs := make(map[string]*acc)

	for _, records := range flow {
		for _, r := range records {
			a := accs[r.Code]
			if a == nil {
				a = &acc{pattern: models.LayoutPattern{Code: r.Code}}
				accs[r.Code] = a
			}
			a.pattern.TotalNet += r.NetShares
			switch {
			case r.NetShares > 0:
				a.pattern.BuyDays++
				a.buyVols = append(a.buyVols, float64(r.NetShares))
			case r.NetShares < 0:
				a.pattern.SellDays++
				a.sellVols = append(a.sellVols, float64(-r.NetShares))
			default:
				a.pattern.NeutralDays++
			}
		}
	}

	patterns := make(map[string]models.LayoutPattern, len(accs))
	for code, a := range accs {
		a.pattern.TotalDays = windowDays
		a.pattern.AvgBuyShares = mean(a.buyVols)
		a.pattern.AvgSellShares = mean(a.sellVols)
		a.pattern.Stability = stability(a.buyVols)
		patterns[code] = a.pattern
	}
	return patterns
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return m
}

// stability maps the coefficient of variation of the buy-day volumes to
// (0,1]: identical daily buying scores 1, erratic buying decays toward 0.
func stability(buyVols []float64) float64 {
	if len(buyVols) == 0 {
		return 0
	}
	m, err := stats.Mean(buyVols)
	if err != nil || m == 0 {
		return 0
	}
	sd, err := stats.StandardDeviation(buyVols)
	if err != nil {
		return 0
	}
	return 1 / (1 + sd/m)
}

// Score weighs one pattern under one category's profile. The returned
// score is 0-100.
func Score(pattern models.LayoutPattern, category models.InvestorCategory) models.LayoutScore {
	profile := Profiles[category]

	frequency := 0.0
	if pattern.TotalDays > 0 {
		frequency = float64(pattern.BuyDays) / float64(pattern.TotalDays)
	}

	netVolume := 0.0
	if pattern.TotalNet > 0 {
		netVolume = float64(pattern.TotalNet) / NetVolumeCapShares
		if netVolume > 1 {
			netVolume = 1
		}
	}

	consistency := 0.0
	if pattern.BuyDays > pattern.SellDays && pattern.TotalNet > 0 {
		consistency = 1
	}

	score := (profile.Frequency*frequency +
		profile.NetVolume*netVolume +
		profile.Stability*pattern.Stability +
		profile.Consistency*consistency) * 100

	return models.LayoutScore{
		Code:        pattern.Code,
		Category:    category,
		Score:       score,
		Frequency:   frequency,
		NetVolume:   netVolume,
		Stability:   pattern.Stability,
		Consistency: consistency,
		Pattern:     pattern,
	}
}

// Qualifies applies the hard accumulation gate. Score alone is never
// enough: the window must be net positive with more buy days than sell
// days.
func Qualifies(s models.LayoutScore, minScore float64) bool {
	return s.Score >= minScore && s.Pattern.TotalNet > 0 && s.Pattern.BuyDays > s.Pattern.SellDays
}

// Analyze folds a category's flow map, scores every symbol and returns
// the qualifying scores ordered best first.
func Analyze(flow models.InstitutionalFlowMap, category models.InvestorCategory, minScore float64, names map[string]string) []models.LayoutScore {
	patterns := FoldPatterns(flow)

	scores := make([]models.LayoutScore, 0, len(patterns))
	for code, pattern := range patterns {
		s := Score(pattern, category)
		if !Qualifies(s, minScore) {
			continue
		}
		if names != nil {
			s.Name = names[code]
		}
		scores = append(scores, s)
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

// Intersect returns the codes qualifying under at least minCategories
// of the provided per-category result sets.
func Intersect(byCategory map[models.InvestorCategory][]models.LayoutScore, minCategories int) []string {
	counts := make(map[string]int)
	for _, scores := range byCategory {
		for _, s := range scores {
			counts[s.Code]++
		}
	}
	codes := make([]string, 0)
	for code, n := range counts {
		if n >= minCategories {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
