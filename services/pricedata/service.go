package pricedata

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tw_scanner_backend/models"
)

const chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// MarketIndexSymbol is the weighted index of the Taiwan exchange.
const MarketIndexSymbol = "^TWII"

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Service fetches daily price history, backed by the local bar store.
// A symbol whose source is unreachable or empty simply yields no bars;
// callers exclude such symbols from the current pass.
type Service struct {
	httpClient *http.Client
	store      *BarStore
}

// Global service instance
var GlobalPriceDataService *Service

// InitPriceDataService wires the history client to the bar store. The
// store may be nil, which disables local caching.
func InitPriceDataService(store *BarStore, timeout time.Duration) {
	GlobalPriceDataService = &Service{
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
	}
	log.Println("Price Data Service initialized")
}

// yahooSymbol maps an exchange code to the chart feed's symbol space.
// Index symbols pass through unchanged.
func yahooSymbol(code string) string {
	if strings.HasPrefix(code, "^") {
		return code
	}
	return code + ".TW"
}

// GetHistory returns up to `days` daily bars for one symbol in
// ascending date order. The remote feed is tried first and mirrored
// into the bar store; on failure the store serves what it has.
func (s *Service) GetHistory(code string, days int) (models.PriceSeries, error) {
	series, err := s.fetchChart(code, days)
	if err == nil && len(series) > 0 {
		if s.store != nil {
			if storeErr := s.store.UpsertBars(code, series); storeErr != nil {
				log.Printf("bar store write failed for %s: %v", code, storeErr)
			}
		}
		return series, nil
	}

	if s.store != nil {
		cached, cacheErr := s.store.LoadBars(code, days)
		if cacheErr == nil && len(cached) > 0 {
			return cached, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Service) fetchChart(code string, days int) (models.PriceSeries, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=%dd", chartBaseURL, yahooSymbol(code), days)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return parseChart(body)
}

func parseChart(body []byte) (models.PriceSeries, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse chart: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart source error: %s", payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Suspended or half-filled days arrive as nulls. Skip them.
		if i >= len(quote.Close) || quote.Close[i] == nil ||
			quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		series = append(series, models.Candle{
			Date:   time.Unix(ts, 0),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}
	return series, nil
}

// IndexQuote is the market index snapshot served by the query surface.
type IndexQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prev_close"`
	ChangePercent float64 `json:"change_percent"`
}

// GetIndexQuote fetches the current market index level.
func (s *Service) GetIndexQuote() (*IndexQuote, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", chartBaseURL, MarketIndexSymbol)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse index response: %w", err)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("index response empty")
	}

	meta := payload.Chart.Result[0].Meta
	quote := &IndexQuote{
		Symbol:    MarketIndexSymbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.ChartPreviousClose,
	}
	if quote.PrevClose > 0 {
		quote.ChangePercent = (quote.Price - quote.PrevClose) / quote.PrevClose * 100
	}
	return quote, nil
}
