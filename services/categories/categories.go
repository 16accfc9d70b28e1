package categories

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const listedCompaniesURL = "https://openapi.twse.com.tw/v1/opendata/t187ap03_L"

// Volatility buckets drive per-category breakout thresholds.
const (
	VolatilityHigh    = "high"
	VolatilityDefault = "default"
	VolatilityLow     = "low"
)

// Sectors that historically swing the widest and the narrowest.
var highVolatilitySectors = map[string]bool{
	"半導體業":     true,
	"電子零組件業":   true,
	"光電業":      true,
	"通信網路業":    true,
	"電腦及週邊設備業": true,
	"生技醫療業":    true,
	"航運業":      true,
}

var lowVolatilitySectors = map[string]bool{
	"金融保險業":    true,
	"食品工業":     true,
	"電力及燃氣供應業": true,
	"水泥工業":     true,
}

// Entry is one listed symbol's static classification.
type Entry struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Sector     string `json:"sector"`
	Volatility string `json:"volatility"`
}

// overrideFile is the operator-maintained YAML of manual corrections.
// A manual entry always beats the derived classification.
type overrideFile struct {
	Overrides map[string]struct {
		Name       string `yaml:"name"`
		Sector     string `yaml:"sector"`
		Volatility string `yaml:"volatility"`
	} `yaml:"overrides"`
	Delisted []string `yaml:"delisted"`
}

type listedCompany struct {
	Code   string `json:"公司代號"`
	Name   string `json:"公司簡稱"`
	Sector string `json:"產業別"`
}

// Table is the symbol universe. Built once at process start and
// immutable afterwards, so readers need no locking.
type Table struct {
	entries map[string]Entry
	codes   []string
}

// Global table instance
var GlobalCategoryTable *Table

// InitCategoryService fetches the listed-company registry, applies the
// YAML overrides and publishes the immutable table. Must run before any
// scanner starts.
func InitCategoryService(overridePath string, timeout time.Duration) error {
	companies, err := fetchListedCompanies(timeout)
	if err != nil {
		return fmt.Errorf("failed to load listed companies: %w", err)
	}

	overrides := loadOverrides(overridePath)
	delisted := make(map[string]bool, len(overrides.Delisted))
	for _, code := range overrides.Delisted {
		delisted[code] = true
	}

	table := &Table{entries: make(map[string]Entry, len(companies))}
	for _, c := range companies {
		if len(c.Code) != 4 || delisted[c.Code] {
			continue
		}
		entry := Entry{
			Code:       c.Code,
			Name:       c.Name,
			Sector:     c.Sector,
			Volatility: volatilityFor(c.Sector),
		}
		if o, ok := overrides.Overrides[c.Code]; ok {
			if o.Name != "" {
				entry.Name = o.Name
			}
			if o.Sector != "" {
				entry.Sector = o.Sector
			}
			if o.Volatility != "" {
				entry.Volatility = o.Volatility
			}
		}
		table.entries[entry.Code] = entry
		table.codes = append(table.codes, entry.Code)
	}

	if len(table.codes) == 0 {
		return fmt.Errorf("listed-company registry yielded no usable symbols")
	}

	GlobalCategoryTable = table
	log.Printf("Category table initialized with %d symbols", len(table.codes))
	return nil
}

func fetchListedCompanies(timeout time.Duration) ([]listedCompany, error) {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest("GET", listedCompaniesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var companies []listedCompany
	if err := json.Unmarshal(body, &companies); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return companies, nil
}

func loadOverrides(path string) overrideFile {
	var of overrideFile
	if path == "" {
		return of
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("No category override file at %s, using derived classifications", path)
		return of
	}
	if err := yaml.Unmarshal(data, &of); err != nil {
		log.Printf("Invalid category override file %s: %v", path, err)
		return overrideFile{}
	}
	return of
}

func volatilityFor(sector string) string {
	switch {
	case highVolatilitySectors[sector]:
		return VolatilityHigh
	case lowVolatilitySectors[sector]:
		return VolatilityLow
	default:
		return VolatilityDefault
	}
}

// Codes returns every symbol in the universe.
func (t *Table) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// Lookup returns one symbol's entry.
func (t *Table) Lookup(code string) (Entry, bool) {
	e, ok := t.entries[code]
	return e, ok
}

// Name returns the display name for a code, empty when unknown.
func (t *Table) Name(code string) string {
	return t.entries[code].Name
}

// Volatility returns the volatility bucket for a code, defaulting for
// unknown symbols.
func (t *Table) Volatility(code string) string {
	if e, ok := t.entries[code]; ok && e.Volatility != "" {
		return e.Volatility
	}
	return VolatilityDefault
}

// Names returns a code-to-name map for result decoration.
func (t *Table) Names() map[string]string {
	out := make(map[string]string, len(t.entries))
	for code, e := range t.entries {
		out[code] = e.Name
	}
	return out
}

// NewTableForTest builds a table from explicit entries. Test helper.
func NewTableForTest(entries []Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Volatility == "" {
			e.Volatility = volatilityFor(e.Sector)
		}
		t.entries[e.Code] = e
		t.codes = append(t.codes, e.Code)
	}
	return t
}
