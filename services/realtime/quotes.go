package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tw_scanner_backend/models"
)

const (
	quoteBaseURL    = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"
	quoteBatchSize  = 20
	quoteBatchDelay = 100 * time.Millisecond
)

type quoteResponse struct {
	MsgArray []struct {
		Code      string `json:"c"`
		Name      string `json:"n"`
		Last      string `json:"z"`
		PrevClose string `json:"y"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Volume    string `json:"v"`
		BestBid   string `json:"b"`
	} `json:"msgArray"`
}

// QuoteClient fetches live quotes from the exchange's delayed feed in
// fixed-size batches. Symbols the feed does not answer for are simply
// absent from the result, never an error for the whole batch.
type QuoteClient struct {
	httpClient *http.Client
}

// NewQuoteClient builds a quote client with the given request timeout.
func NewQuoteClient(timeout time.Duration) *QuoteClient {
	return &QuoteClient{httpClient: &http.Client{Timeout: timeout}}
}

// GetQuotes fetches live quotes for the given codes. The feed caps each
// request, so codes are chunked with a short pause between chunks.
func (c *QuoteClient) GetQuotes(codes []string) map[string]models.Quote {
	quotes := make(map[string]models.Quote, len(codes))
	for start := 0; start < len(codes); start += quoteBatchSize {
		end := start + quoteBatchSize
		if end > len(codes) {
			end = len(codes)
		}
		chunk := codes[start:end]

		batch, err := c.fetchBatch(chunk)
		if err != nil {
			log.Printf("quote batch failed (%d symbols): %v", len(chunk), err)
		} else {
			for code, q := range batch {
				quotes[code] = q
			}
		}

		if end < len(codes) {
			time.Sleep(quoteBatchDelay)
		}
	}
	return quotes
}

func (c *QuoteClient) fetchBatch(codes []string) (map[string]models.Quote, error) {
	channels := make([]string, len(codes))
	for i, code := range codes {
		channels[i] = "tse_" + code + ".tw"
	}

	url := fmt.Sprintf("%s?ex_ch=%s&json=1&delay=0", quoteBaseURL, strings.Join(channels, "|"))
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload quoteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse quotes: %w", err)
	}

	quotes := make(map[string]models.Quote, len(payload.MsgArray))
	for _, msg := range payload.MsgArray {
		q, ok := parseQuote(msg.Code, msg.Name, msg.Last, msg.PrevClose, msg.Open, msg.High, msg.Low, msg.Volume, msg.BestBid)
		if !ok {
			continue
		}
		quotes[q.Code] = q
	}
	return quotes, nil
}

// parseQuote assembles one quote from the feed's string fields. The
// feed writes "-" before the first trade; such symbols fall back to the
// best bid, then to the previous close. A quote without a usable price
// or previous close is dropped.
func parseQuote(code, name, last, prevClose, open, high, low, volume, bestBid string) (models.Quote, bool) {
	prev := parsePrice(prevClose)
	if code == "" || prev == 0 {
		return models.Quote{}, false
	}

	price := parsePrice(last)
	if price == 0 {
		price = firstPrice(bestBid)
	}
	if price == 0 {
		price = prev
	}

	q := models.Quote{
		Code:      code,
		Name:      name,
		Price:     price,
		PrevClose: prev,
		Open:      parsePrice(open),
		High:      parsePrice(high),
		Low:       parsePrice(low),
		Volume:    parseLots(volume),
	}
	q.ChangePercent = (q.Price - q.PrevClose) / q.PrevClose * 100
	return q, true
}

func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// firstPrice reads the leading entry of the feed's "_"-separated
// five-level price strings.
func firstPrice(s string) float64 {
	parts := strings.Split(s, "_")
	if len(parts) == 0 {
		return 0
	}
	return parsePrice(parts[0])
}

func parseLots(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// SynthesizeCandle folds one quote into an intraday bar. Volume stays
// in board lots as the feed reports it.
func SynthesizeCandle(q models.Quote) models.IntradayCandle {
	return models.IntradayCandle{
		Code:      q.Code,
		Open:      q.Open,
		High:      q.High,
		Low:       q.Low,
		Close:     q.Price,
		Volume:    q.Volume,
		PrevClose: q.PrevClose,
	}
}
