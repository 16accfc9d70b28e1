package dividend

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tw_scanner_backend/models"
)

const dividendScheduleURL = "https://www.twse.com.tw/rwd/zh/exchangeReport/TWT48U"

type scheduleResponse struct {
	Stat string     `json:"stat"`
	Data [][]string `json:"data"`
}

// Service loads the exchange's upcoming ex-dividend schedule.
type Service struct {
	httpClient *http.Client
}

// Global service instance
var GlobalDividendService *Service

// InitDividendService builds the global loader.
func InitDividendService(timeout time.Duration) {
	GlobalDividendService = &Service{httpClient: &http.Client{Timeout: timeout}}
	log.Println("Dividend Service initialized")
}

// Upcoming returns ex-dividend events inside the next `days` calendar
// days, soonest first as the exchange publishes them.
func (s *Service) Upcoming(days int) ([]models.DividendEvent, error) {
	start := time.Now()
	end := start.AddDate(0, 0, days)

	url := fmt.Sprintf("%s?response=json&startDate=%s&endDate=%s",
		dividendScheduleURL, start.Format("20060102"), end.Format("20060102"))
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dividend fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dividend fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload scheduleResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	if payload.Stat != "OK" {
		return nil, nil
	}
	return parseSchedule(payload.Data), nil
}

// parseSchedule reads the schedule table. Columns: ROC date, code,
// name, pre-ex close, reference price, combined value, kind. Rows that
// fail to parse are skipped.
func parseSchedule(rows [][]string) []models.DividendEvent {
	events := make([]models.DividendEvent, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		exDate, err := ParseROCDate(row[0])
		if err != nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[5]), ",", ""))
		if err != nil {
			continue
		}

		event := models.DividendEvent{
			Code:   strings.TrimSpace(row[1]),
			Name:   strings.TrimSpace(row[2]),
			ExDate: exDate.Format("2006-01-02"),
		}
		kind := strings.TrimSpace(row[6])
		switch {
		case strings.Contains(kind, "息") && strings.Contains(kind, "權"):
			// Combined distribution. The table only publishes the sum.
			event.CashDividend = amount.String()
		case strings.Contains(kind, "權"):
			event.StockDividend = amount.String()
		default:
			event.CashDividend = amount.String()
		}
		events = append(events, event)
	}
	return events
}

// ParseROCDate converts a Republic-of-China calendar date, e.g.
// "114年08月25日" or "114/08/25", into a time.Time.
func ParseROCDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("年", "/", "月", "/", "日", "").Replace(s)

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}

	var year, month, day int
	if _, err := fmt.Sscanf(strings.Join(parts, "/"), "%d/%d/%d", &year, &month, &day); err != nil {
		return time.Time{}, fmt.Errorf("invalid ROC date %q: %w", s, err)
	}
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}
	return time.Date(year+1911, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
