package scanner

import (
	"fmt"
	"log"
	"sort"
	"time"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/categories"
	"tw_scanner_backend/services/institutional"
	"tw_scanner_backend/services/market"
	"tw_scanner_backend/services/pricedata"
	"tw_scanner_backend/services/realtime"
)

// historyDays is the calendar range requested per symbol. It yields
// comfortably more than the 60 trading bars the engines need.
const historyDays = 150

// Options bundles the scan service dependencies and tuning.
type Options struct {
	Session         *market.Session
	Table           *categories.Table
	Prices          *pricedata.Service
	Flows           *institutional.Service
	Quotes          *realtime.QuoteClient
	Hub             *realtime.Hub
	Workers         int
	IntradayWorkers int
	TTLMarket       time.Duration
	TTLOffHours     time.Duration
	IntradayTTL     time.Duration
	IntradayTTLOff  time.Duration
}

// Service runs the pattern engines over the symbol universe. Each
// engine sits behind its own session-aware cache; default-parameter
// scans are cached, custom parameters run on demand.
type Service struct {
	opts Options

	breakoutCache   *Cache[[]models.BreakoutResult]
	reboundCache    *Cache[[]models.ReboundResult]
	downtrendCache  *Cache[[]models.DowntrendResult]
	momentumCache   *Cache[[]models.MomentumResult]
	pressureCache   *Cache[[]models.PressureReleaseResult]
	divergenceCache *Cache[[]models.DivergenceResult]
	intradayCache   *Cache[[]models.IntradayResult]
}

// Global scan service instance
var GlobalScanService *Service

// InitScanService wires the engines to their caches.
func InitScanService(opts Options) *Service {
	s := &Service{opts: opts}
	sess := opts.Session

	s.breakoutCache = NewCache("breakout", sess, opts.TTLMarket, opts.TTLOffHours, s.scanBreakouts)
	s.reboundCache = NewCache("rebound", sess, opts.TTLMarket, opts.TTLOffHours, s.scanRebounds)
	s.downtrendCache = NewCache("downtrend", sess, opts.TTLMarket, opts.TTLOffHours, s.scanDowntrends)
	s.momentumCache = NewCache("momentum", sess, opts.TTLMarket, opts.TTLOffHours, func() ([]models.MomentumResult, error) {
		return s.scanMomentum(DefaultMomentumMinDays)
	})
	s.pressureCache = NewCache("pressure", sess, opts.TTLMarket, opts.TTLOffHours, func() ([]models.PressureReleaseResult, error) {
		return s.scanPressure(DefaultPressureMinDays)
	})
	s.divergenceCache = NewCache("divergence", sess, opts.TTLMarket, opts.TTLOffHours, func() ([]models.DivergenceResult, error) {
		return s.scanDivergence(DefaultDivergenceWindow, DefaultDivergenceMinNetLots, DefaultDivergenceCeiling, false)
	})
	s.intradayCache = NewCache("intraday", sess, opts.IntradayTTL, opts.IntradayTTLOff, s.scanIntraday)

	GlobalScanService = s
	log.Println("Scan Service initialized")
	return s
}

func (s *Service) history(code string) (models.PriceSeries, error) {
	return s.opts.Prices.GetHistory(code, historyDays)
}

func (s *Service) entry(code string) (name, volatility string) {
	e, ok := s.opts.Table.Lookup(code)
	if !ok {
		return "", categories.VolatilityDefault
	}
	return e.Name, e.Volatility
}

// latestNets returns the most recent combined institutional nets, empty
// on failure so price-only engines still run.
func (s *Service) latestNets() map[string]institutional.CombinedNet {
	_, nets, err := s.opts.Flows.LatestCombined()
	if err != nil {
		log.Printf("institutional snapshot unavailable: %v", err)
		return map[string]institutional.CombinedNet{}
	}
	return nets
}

func (s *Service) scanBreakouts() ([]models.BreakoutResult, error) {
	codes := s.opts.Table.Codes()
	nets := s.latestNets()

	results := Run("breakout", codes, s.opts.Workers, func(code string) Outcome[models.BreakoutResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.BreakoutResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluateBreakout(code, name, volatility, series, nets[code].NetShares); ok {
			return Match(r)
		}
		return NoMatch[models.BreakoutResult]()
	})

	sort.Slice(results, func(i, j int) bool { return results[i].ChangePercent > results[j].ChangePercent })
	return results, nil
}

func (s *Service) scanRebounds() ([]models.ReboundResult, error) {
	codes := s.opts.Table.Codes()

	results := Run("rebound", codes, s.opts.Workers, func(code string) Outcome[models.ReboundResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.ReboundResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluateRebound(code, name, volatility, series); ok {
			return Match(r)
		}
		return NoMatch[models.ReboundResult]()
	})

	sort.Slice(results, func(i, j int) bool { return results[i].Position60 < results[j].Position60 })
	return results, nil
}

func (s *Service) scanDowntrends() ([]models.DowntrendResult, error) {
	codes := s.opts.Table.Codes()

	results := Run("downtrend", codes, s.opts.Workers, func(code string) Outcome[models.DowntrendResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.DowntrendResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluateDowntrend(code, name, volatility, series); ok {
			return Match(r)
		}
		return NoMatch[models.DowntrendResult]()
	})

	sort.Slice(results, func(i, j int) bool { return len(results[i].Warnings) > len(results[j].Warnings) })
	return results, nil
}

func (s *Service) scanMomentum(minDays int) ([]models.MomentumResult, error) {
	codes := s.opts.Table.Codes()
	nets := s.latestNets()

	results := Run("momentum", codes, s.opts.Workers, func(code string) Outcome[models.MomentumResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.MomentumResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluateMomentum(code, name, volatility, series, minDays, nets[code].NetShares); ok {
			return Match(r)
		}
		return NoMatch[models.MomentumResult]()
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].ConsecutiveDays != results[j].ConsecutiveDays {
			return results[i].ConsecutiveDays > results[j].ConsecutiveDays
		}
		return results[i].CumulativeGain > results[j].CumulativeGain
	})
	return results, nil
}

func (s *Service) scanPressure(minDays int) ([]models.PressureReleaseResult, error) {
	codes := s.opts.Table.Codes()

	results := Run("pressure", codes, s.opts.Workers, func(code string) Outcome[models.PressureReleaseResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.PressureReleaseResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluatePressureRelease(code, name, volatility, series, minDays); ok {
			return Match(r)
		}
		return NoMatch[models.PressureReleaseResult]()
	})

	sort.Slice(results, func(i, j int) bool { return results[i].DeclinePercent > results[j].DeclinePercent })
	return results, nil
}

func (s *Service) scanDivergence(windowDays, minNetLots int, ceiling float64, requireShadow bool) ([]models.DivergenceResult, error) {
	// Per-symbol nets summed across all three categories over the window.
	windowNets := make(map[string]int64)
	for _, category := range models.AllInvestorCategories {
		flow := s.opts.Flows.FetchRange(category, windowDays)
		for _, records := range flow {
			for _, r := range records {
				windowNets[r.Code] += r.NetShares
			}
		}
	}

	// Only symbols over the net-buy floor are worth a history fetch.
	var candidates []string
	floor := int64(minNetLots) * 1000
	for code, net := range windowNets {
		if net >= floor {
			if _, ok := s.opts.Table.Lookup(code); ok {
				candidates = append(candidates, code)
			}
		}
	}

	results := Run("divergence", candidates, s.opts.Workers, func(code string) Outcome[models.DivergenceResult] {
		series, err := s.history(code)
		if err != nil {
			return Failed[models.DivergenceResult](fmt.Errorf("history: %w", err))
		}
		name, volatility := s.entry(code)
		if r, ok := EvaluateDivergence(code, name, volatility, series, windowDays, windowNets[code], minNetLots, ceiling, requireShadow); ok {
			return Match(r)
		}
		return NoMatch[models.DivergenceResult]()
	})

	sort.Slice(results, func(i, j int) bool { return results[i].NetBuyShares > results[j].NetBuyShares })
	return results, nil
}

func (s *Service) scanIntraday() ([]models.IntradayResult, error) {
	codes := s.opts.Table.Codes()
	quotes := s.opts.Quotes.GetQuotes(codes)

	// Quick pass: only symbols already up enough deserve a closer look.
	var hot []string
	for code, q := range quotes {
		if q.ChangePercent >= intradayMinGainPercent {
			hot = append(hot, code)
		}
	}

	results := Run("intraday", hot, s.opts.IntradayWorkers, func(code string) Outcome[models.IntradayResult] {
		candle := realtime.SynthesizeCandle(quotes[code])
		name, volatility := s.entry(code)
		if r, ok := EvaluateIntraday(code, name, volatility, candle); ok {
			return Match(r)
		}
		return NoMatch[models.IntradayResult]()
	})

	sort.Slice(results, func(i, j int) bool { return results[i].ChangePercent > results[j].ChangePercent })

	if s.opts.Hub != nil && len(results) > 0 {
		s.opts.Hub.Broadcast("intraday_scan", results)
	}
	return results, nil
}

// Cached accessors. force bypasses the TTL.

func (s *Service) GetBreakouts(force bool) ([]models.BreakoutResult, CacheStatus) {
	return s.breakoutCache.Get(force)
}

func (s *Service) GetRebounds(force bool) ([]models.ReboundResult, CacheStatus) {
	return s.reboundCache.Get(force)
}

func (s *Service) GetDowntrends(force bool) ([]models.DowntrendResult, CacheStatus) {
	return s.downtrendCache.Get(force)
}

// GetMomentum serves the cached default scan; a custom run length runs
// uncached.
func (s *Service) GetMomentum(minDays int, force bool) ([]models.MomentumResult, CacheStatus, error) {
	if minDays == DefaultMomentumMinDays {
		results, status := s.momentumCache.Get(force)
		return results, status, nil
	}
	results, err := s.scanMomentum(minDays)
	return results, CacheStatus{WrittenAt: s.opts.Session.Now()}, err
}

func (s *Service) GetPressureReleases(minDays int, force bool) ([]models.PressureReleaseResult, CacheStatus, error) {
	if minDays == DefaultPressureMinDays {
		results, status := s.pressureCache.Get(force)
		return results, status, nil
	}
	results, err := s.scanPressure(minDays)
	return results, CacheStatus{WrittenAt: s.opts.Session.Now()}, err
}

func (s *Service) GetDivergences(windowDays, minNetLots int, ceiling float64, requireShadow, force bool) ([]models.DivergenceResult, CacheStatus, error) {
	if windowDays == DefaultDivergenceWindow && minNetLots == DefaultDivergenceMinNetLots &&
		ceiling == DefaultDivergenceCeiling && !requireShadow {
		results, status := s.divergenceCache.Get(force)
		return results, status, nil
	}
	results, err := s.scanDivergence(windowDays, minNetLots, ceiling, requireShadow)
	return results, CacheStatus{WrittenAt: s.opts.Session.Now()}, err
}

func (s *Service) GetIntraday(force bool) ([]models.IntradayResult, CacheStatus) {
	return s.intradayCache.Get(force)
}

// WarmCaches rebuilds the daily-pattern caches. The scheduler calls
// this during market hours so user requests mostly hit warm data.
func (s *Service) WarmCaches() {
	start := time.Now()
	breakouts, _ := s.GetBreakouts(false)
	momentum, _, _ := s.GetMomentum(DefaultMomentumMinDays, false)
	pressure, _, _ := s.GetPressureReleases(DefaultPressureMinDays, false)
	log.Printf("cache warm finished in %s: %d breakouts, %d momentum, %d pressure",
		time.Since(start).Round(time.Millisecond), len(breakouts), len(momentum), len(pressure))
}
