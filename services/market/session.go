package market

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// Phase is the coarse state of the trading session.
type Phase string

const (
	PhasePreMarket Phase = "pre_market"
	PhaseOpen      Phase = "open"
	PhaseClosed    Phase = "closed"
)

// Taiwan cash-market session bounds, local exchange time.
const (
	preMarketStartHour = 8
	openHour           = 9
	closeHour          = 13
	closeMinute        = 30
)

// Clock abstracts the current time so session logic is testable.
type Clock func() time.Time

// Session answers session-phase questions for the Taiwan exchange.
// Trading days come from the exchange calendar when available, with a
// plain Mon-Fri fallback otherwise.
type Session struct {
	cal      *calendar.Calendar
	fallback bool
	loc      *time.Location
	now      Clock
}

// NewSession builds a session clock. A nil clock uses time.Now.
func NewSession(now Clock) *Session {
	s := &Session{now: now}
	if s.now == nil {
		s.now = time.Now
	}

	// xtai is the ISO 10383 MIC for the Taiwan Stock Exchange.
	cal := calendar.GetCalendar("xtai")
	if cal == nil {
		log.Println("WARNING: xtai exchange calendar unavailable, using Mon-Fri fallback")
		loc, err := time.LoadLocation("Asia/Taipei")
		if err != nil {
			loc = time.FixedZone("CST", 8*3600)
		}
		s.fallback = true
		s.loc = loc
		return s
	}

	s.cal = cal
	s.loc = cal.Loc
	return s
}

// Location returns the exchange timezone.
func (s *Session) Location() *time.Location {
	return s.loc
}

// Now returns the current time in the exchange timezone.
func (s *Session) Now() time.Time {
	return s.now().In(s.loc)
}

// IsTradingDay reports whether date is a business day on the exchange.
func (s *Session) IsTradingDay(date time.Time) bool {
	date = date.In(s.loc)
	if s.fallback {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return s.cal.IsBusinessDay(date)
}

// PhaseAt classifies an instant into pre-market, open or closed.
func (s *Session) PhaseAt(t time.Time) Phase {
	t = t.In(s.loc)
	if !s.IsTradingDay(t) {
		return PhaseClosed
	}

	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= preMarketStartHour*60 && minutes < openHour*60:
		return PhasePreMarket
	case minutes >= openHour*60 && minutes < closeHour*60+closeMinute:
		return PhaseOpen
	default:
		return PhaseClosed
	}
}

// Phase classifies the current instant.
func (s *Session) Phase() Phase {
	return s.PhaseAt(s.now())
}

// IsOpen reports whether the cash session is currently trading.
func (s *Session) IsOpen() bool {
	return s.Phase() == PhaseOpen
}

// PrevTradingDay walks back from date to the most recent earlier
// trading day.
func (s *Session) PrevTradingDay(date time.Time) time.Time {
	d := date.In(s.loc).AddDate(0, 0, -1)
	for !s.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// RecentTradingDays returns the last n trading days ending at (and
// including) the given date when it is itself a trading day, most
// recent first.
func (s *Session) RecentTradingDays(from time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := from.In(s.loc)
	for len(days) < n {
		if s.IsTradingDay(d) {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return days
}
