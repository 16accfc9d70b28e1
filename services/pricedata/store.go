package pricedata

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tw_scanner_backend/models"
)

// BarStore keeps daily bars in a local SQLite file so repeated scans do
// not refetch unchanged history. It is an opportunistic cache, not a
// source of truth: callers tolerate misses.
type BarStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// InitBarStore opens (or creates) the bar database under dataDir.
func InitBarStore(dataDir string) (*BarStore, error) {
	path := filepath.Join(dataDir, "bars.db")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping bar store: %w", err)
	}

	store := &BarStore{db: db}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("Bar store initialized at %s", path)
	return store, nil
}

// Close closes the underlying database.
func (s *BarStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *BarStore) createTables() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	CREATE TABLE IF NOT EXISTS daily_bars (
		code   TEXT NOT NULL,
		date   TEXT NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume INTEGER NOT NULL,
		PRIMARY KEY (code, date)
	);
	CREATE INDEX IF NOT EXISTS idx_daily_bars_code ON daily_bars(code);
	`
	_, err := s.db.Exec(query)
	return err
}

// UpsertBars writes a series for one symbol. Existing dates are
// overwritten, which makes re-syncing the current day safe.
func (s *BarStore) UpsertBars(code string, series models.PriceSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO daily_bars (code, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, bar := range series {
		if _, err := stmt.Exec(code, bar.Date.Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadBars reads up to limit most recent bars for one symbol, returned
// in ascending date order.
func (s *BarStore) LoadBars(code string, limit int) (models.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT date, open, high, low, close, volume
		FROM daily_bars WHERE code = ?
		ORDER BY date DESC LIMIT ?
	`, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series models.PriceSeries
	for rows.Next() {
		var dateStr string
		var bar models.Candle
		if err := rows.Scan(&dateStr, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		bar.Date = date
		series = append(series, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into ascending order.
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
	return series, nil
}

// LatestDate reports the newest stored date for one symbol, empty when
// the symbol is unknown.
func (s *BarStore) LatestDate(code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var date sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM daily_bars WHERE code = ?`, code).Scan(&date)
	if err != nil {
		return "", err
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}
