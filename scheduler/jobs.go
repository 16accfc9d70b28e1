package scheduler

import (
	"log"

	"github.com/go-co-op/gocron"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/institutional"
	"tw_scanner_backend/services/market"
	"tw_scanner_backend/services/scanner"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron    *gocron.Scheduler
	session *market.Session
	scans   *scanner.Service
	flows   *institutional.Service
}

// NewScheduler creates a new scheduler instance. Jobs run on exchange
// time so the at-clock jobs land where the publication schedule says.
func NewScheduler(session *market.Session, scans *scanner.Service, flows *institutional.Service) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(session.Location()),
		session: session,
		scans:   scans,
		flows:   flows,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Rewarm the daily-pattern caches every 5 minutes during the session.
	s.cron.Every(5).Minutes().Do(func() {
		if s.session.IsOpen() {
			s.scans.WarmCaches()
		}
	})

	// Poll the intraday scan every minute while trading; matches are
	// broadcast to websocket subscribers as a side effect.
	s.cron.Every(1).Minute().Do(func() {
		if s.session.IsOpen() {
			s.scans.GetIntraday(false)
		}
	})

	// The exchange publishes the institutional tables after the close.
	s.cron.Every(1).Day().At("15:30").Do(func() {
		s.prefetchInstitutional()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started")
}

// Stop stops all scheduled jobs
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
}

// prefetchInstitutional pulls today's three tables into the disk cache
// so evening layout queries answer from local files.
func (s *Scheduler) prefetchInstitutional() {
	today := s.session.Now()
	if !s.session.IsTradingDay(today) {
		return
	}
	for _, category := range models.AllInvestorCategories {
		records, err := s.flows.FetchDay(category, today)
		if err != nil {
			log.Printf("institutional prefetch %s: %v", category, err)
			continue
		}
		log.Printf("institutional prefetch %s: %d records", category, len(records))
	}
}
