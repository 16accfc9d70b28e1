package institutional

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/market"
)

const (
	twseBaseURL    = "https://www.twse.com.tw/rwd/zh/fund"
	fetchWorkers   = 20
	latestLookback = 10
)

// categoryEndpoints maps each investor category to its daily TWSE table.
var categoryEndpoints = map[models.InvestorCategory]string{
	models.InvestorForeign: "TWT38U",
	models.InvestorTrust:   "TWT44U",
	models.InvestorDealer:  "TWT43U",
}

type twseResponse struct {
	Stat string     `json:"stat"`
	Date string     `json:"date"`
	Data [][]string `json:"data"`
}

// Service fetches and aggregates the exchange's daily institutional
// buy/sell tables, with a per-(category,date) JSON cache on disk. Past
// dates are immutable once cached; the current date is always
// re-fetched so intraday snapshots converge to the final table.
type Service struct {
	session    *market.Session
	httpClient *http.Client
	cacheDir   string
}

// Global service instance
var GlobalInstitutionalService *Service

// InitInstitutionalService builds the global aggregator.
func InitInstitutionalService(session *market.Session, dataDir string, timeout time.Duration) error {
	cacheDir := filepath.Join(dataDir, "institutional")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create institutional cache directory: %w", err)
	}

	GlobalInstitutionalService = &Service{
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
		cacheDir:   cacheDir,
	}
	log.Println("Institutional Flow Service initialized")
	return nil
}

func (s *Service) cachePath(category models.InvestorCategory, date time.Time) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("%s_%s.json", category, date.Format("20060102")))
}

// FetchDay returns one category's records for one trading day, serving
// past dates from the disk cache when present. A day the exchange has
// not published yet yields an empty slice, not an error.
func (s *Service) FetchDay(category models.InvestorCategory, date time.Time) ([]models.InstitutionalDayRecord, error) {
	today := s.session.Now().Format("2006-01-02")
	isToday := date.In(s.session.Location()).Format("2006-01-02") == today

	path := s.cachePath(category, date)
	if !isToday {
		if records, err := s.readCache(path); err == nil {
			return records, nil
		}
	}

	records, err := s.fetchRemote(category, date)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		if err := s.writeCache(path, records); err != nil {
			log.Printf("institutional cache write failed for %s: %v", path, err)
		}
	}
	return records, nil
}

func (s *Service) readCache(path string) ([]models.InstitutionalDayRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.InstitutionalDayRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) writeCache(path string, records []models.InstitutionalDayRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Service) fetchRemote(category models.InvestorCategory, date time.Time) ([]models.InstitutionalDayRecord, error) {
	endpoint, ok := categoryEndpoints[category]
	if !ok {
		return nil, fmt.Errorf("unknown investor category %q", category)
	}

	url := fmt.Sprintf("%s/%s?response=json&date=%s", twseBaseURL, endpoint, date.Format("20060102"))
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("institutional fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("institutional fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload twseResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// The exchange answers non-trading days with stat != OK. Not an error.
	if payload.Stat != "OK" {
		return nil, nil
	}

	return ParseRows(payload.Data), nil
}

// FetchRange fetches one category over the last `days` trading days on
// a bounded worker pool and merges the results into a flow map keyed by
// date. A day that fails to fetch is logged and skipped.
func (s *Service) FetchRange(category models.InvestorCategory, days int) models.InstitutionalFlowMap {
	dates := s.session.RecentTradingDays(s.session.Now(), days)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		flow      = make(models.InstitutionalFlowMap, len(dates))
		semaphore = make(chan struct{}, fetchWorkers)
	)

	for _, date := range dates {
		wg.Add(1)
		go func(date time.Time) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			records, err := s.FetchDay(category, date)
			if err != nil {
				log.Printf("institutional %s %s: %v", category, date.Format("2006-01-02"), err)
				return
			}
			if len(records) == 0 {
				return
			}
			mu.Lock()
			flow[date.Format("2006-01-02")] = records
			mu.Unlock()
		}(date)
	}
	wg.Wait()
	return flow
}

// CombinedNet is the three categories' summed net for one symbol on the
// most recent published day.
type CombinedNet struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	NetShares int64  `json:"net_shares"`
}

// lookbackDates lists the trading days inside the last ten calendar
// days, most recent first. Non-trading days are skipped up front so
// the walk-back never fetches them.
func (s *Service) lookbackDates() []time.Time {
	var dates []time.Time
	date := s.session.Now()
	for i := 0; i < latestLookback; i++ {
		if s.session.IsTradingDay(date) {
			dates = append(dates, date)
		}
		date = date.AddDate(0, 0, -1)
	}
	return dates
}

// LatestCombined walks back over the last ten calendar days for the
// most recent day any category published, then sums all three
// categories' per-symbol nets for that day. Returns the date used and
// the per-symbol totals.
func (s *Service) LatestCombined() (string, map[string]CombinedNet, error) {
	for _, date := range s.lookbackDates() {
		combined := make(map[string]CombinedNet)
		published := false

		for _, category := range models.AllInvestorCategories {
			records, err := s.FetchDay(category, date)
			if err != nil {
				log.Printf("institutional latest %s: %v", category, err)
				continue
			}
			if len(records) == 0 {
				continue
			}
			published = true
			for _, r := range records {
				entry := combined[r.Code]
				entry.Code = r.Code
				if entry.Name == "" {
					entry.Name = r.Name
				}
				entry.NetShares += r.NetShares
				combined[r.Code] = entry
			}
		}

		if published {
			return date.Format("2006-01-02"), combined, nil
		}
	}
	return "", nil, fmt.Errorf("no institutional data published in the last %d days", latestLookback)
}
