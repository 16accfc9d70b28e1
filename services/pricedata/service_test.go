package pricedata

import (
	"testing"
	"time"

	"tw_scanner_backend/models"
)

func TestYahooSymbol(t *testing.T) {
	if got := yahooSymbol("2330"); got != "2330.TW" {
		t.Errorf("expected 2330.TW, got %s", got)
	}
	if got := yahooSymbol("^TWII"); got != "^TWII" {
		t.Errorf("index symbol should pass through, got %s", got)
	}
}

func TestParseChart_SkipsNullBars(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": [{
				"meta": {"regularMarketPrice": 104, "chartPreviousClose": 100},
				"timestamp": [1755561600, 1755648000, 1755734400],
				"indicators": {"quote": [{
					"open":   [100.0, null, 102.0],
					"high":   [101.0, null, 104.5],
					"low":    [99.0,  null, 101.5],
					"close":  [100.5, null, 104.0],
					"volume": [5000000, null, 12000000]
				}]}
			}],
			"error": null
		}
	}`)

	series, err := parseChart(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 bars after skipping nulls, got %d", len(series))
	}
	if series[0].Close != 100.5 || series[1].Close != 104.0 {
		t.Errorf("unexpected closes: %.2f %.2f", series[0].Close, series[1].Close)
	}
	if series[1].Volume != 12000000 {
		t.Errorf("unexpected volume: %d", series[1].Volume)
	}
}

func TestParseChart_SourceError(t *testing.T) {
	body := []byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "no data"}}}`)
	if _, err := parseChart(body); err == nil {
		t.Error("expected error from chart error payload")
	}
}

func TestParseChart_EmptyResultNotAnError(t *testing.T) {
	body := []byte(`{"chart": {"result": [], "error": null}}`)
	series, err := parseChart(body)
	if err != nil {
		t.Fatalf("empty result should not error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d bars", len(series))
	}
}

func TestBarStore_RoundTrip(t *testing.T) {
	store, err := InitBarStore(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }
	series := models.PriceSeries{
		{Date: day(17), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: day(18), Open: 101, High: 103, Low: 100, Close: 102, Volume: 1500},
		{Date: day(19), Open: 102, High: 105, Low: 101, Close: 104, Volume: 2500},
	}
	if err := store.UpsertBars("2330", series); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.LoadBars("2330", 10)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}
	if !got[0].Date.Before(got[2].Date) {
		t.Error("bars not in ascending date order")
	}
	if got[2].Close != 104 {
		t.Errorf("unexpected last close %.2f", got[2].Close)
	}

	// Re-upserting the last day with corrected volume must overwrite.
	series[2].Volume = 9999
	if err := store.UpsertBars("2330", series[2:]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, _ = store.LoadBars("2330", 10)
	if len(got) != 3 || got[2].Volume != 9999 {
		t.Errorf("expected overwrite, got %d bars last volume %d", len(got), got[len(got)-1].Volume)
	}

	latest, err := store.LatestDate("2330")
	if err != nil || latest != "2026-08-19" {
		t.Errorf("expected latest 2026-08-19, got %q err=%v", latest, err)
	}
	if latest, _ := store.LatestDate("0000"); latest != "" {
		t.Errorf("unknown symbol should have empty latest date, got %q", latest)
	}
}
