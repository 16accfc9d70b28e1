package institutional

import (
	"strconv"
	"strings"

	"tw_scanner_backend/models"
)

// ParseRows converts raw exchange table rows into day records. Some
// tables prepend a rank column, so the symbol code may sit at column 0
// or column 1; rows where neither holds a 4-digit code are discarded
// rather than guessed at.
func ParseRows(rows [][]string) []models.InstitutionalDayRecord {
	records := make([]models.InstitutionalDayRecord, 0, len(rows))
	for _, row := range rows {
		record, ok := parseRow(row)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records
}

func parseRow(row []string) (models.InstitutionalDayRecord, bool) {
	offset := -1
	if len(row) > 0 && isSymbolCode(strings.TrimSpace(row[0])) {
		offset = 0
	} else if len(row) > 1 && isSymbolCode(strings.TrimSpace(row[1])) {
		offset = 1
	}
	if offset < 0 || len(row) < offset+5 {
		return models.InstitutionalDayRecord{}, false
	}

	buy, okBuy := parseShares(row[offset+2])
	sell, okSell := parseShares(row[offset+3])
	net, okNet := parseShares(row[offset+4])
	if !okBuy || !okSell || !okNet {
		return models.InstitutionalDayRecord{}, false
	}

	return models.InstitutionalDayRecord{
		Code:       strings.TrimSpace(row[offset]),
		Name:       strings.TrimSpace(row[offset+1]),
		BuyShares:  buy,
		SellShares: sell,
		NetShares:  net,
	}, true
}

// isSymbolCode matches the exchange's 4-digit equity codes.
func isSymbolCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseShares reads an exchange volume cell. Thousands separators are
// stripped and the "--" placeholder means zero.
func parseShares(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" || s == "-" {
		return 0, true
	}
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
