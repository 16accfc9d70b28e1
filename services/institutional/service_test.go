package institutional

import (
	"testing"
	"time"

	"tw_scanner_backend/services/market"
)

func TestLookbackDates_CalendarWindow(t *testing.T) {
	// Monday 2026-08-24, exchange time.
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	clock := func() time.Time {
		return time.Date(2026, 8, 24, 10, 0, 0, 0, loc)
	}
	s := &Service{session: market.NewSession(clock)}

	dates := s.lookbackDates()
	// Ten calendar days back from Monday the 24th span two weekends,
	// leaving six trading days.
	if len(dates) != 6 {
		t.Fatalf("expected 6 trading days in the window, got %d: %v", len(dates), dates)
	}
	if got := dates[0].Format("2006-01-02"); got != "2026-08-24" {
		t.Errorf("expected the walk to start today, got %s", got)
	}
	if got := dates[len(dates)-1].Format("2006-01-02"); got != "2026-08-17" {
		t.Errorf("expected the window to end 2026-08-17, got %s", got)
	}
	floor := time.Date(2026, 8, 15, 0, 0, 0, 0, loc)
	for i, d := range dates {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend date in lookback: %s", d.Format("2006-01-02"))
		}
		if d.Before(floor) {
			t.Errorf("date outside the 10 calendar days: %s", d.Format("2006-01-02"))
		}
		if i > 0 && !d.Before(dates[i-1]) {
			t.Error("dates not ordered most recent first")
		}
	}
}
