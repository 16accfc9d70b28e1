package controllers

import (
	"net/http"
	"strconv"

	"tw_scanner_backend/services/scanner"

	"github.com/gin-gonic/gin"
)

// ScanController handles pattern-scan endpoints
type ScanController struct{}

// NewScanController creates a new scan controller
func NewScanController() *ScanController {
	return &ScanController{}
}

func forceParam(c *gin.Context) bool {
	return c.DefaultQuery("force", "false") == "true"
}

func limitParam(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 {
		return def
	}
	return limit
}

func scanUnavailable(c *gin.Context) bool {
	if scanner.GlobalScanService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scan service not initialized"})
		return true
	}
	return false
}

// respond trims the result slice and wraps it with cache metadata. A
// rebuild failure still answers 200 with an empty payload and the error
// flag raised; callers poll again rather than retry on faults.
func respond[T any](c *gin.Context, results []T, status scanner.CacheStatus, limit int) {
	total := len(results)
	if limit < total {
		results = results[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
		"total":   total,
		"cache":   status,
	})
}

// GetBreakouts returns consolidation-box breakout matches
// GET /api/v1/scans/breakout
func (ctrl *ScanController) GetBreakouts(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	results, status := scanner.GlobalScanService.GetBreakouts(forceParam(c))
	respond(c, results, status, limitParam(c, 50))
}

// GetRebounds returns pullback and low-base rebound candidates
// GET /api/v1/scans/rebound
func (ctrl *ScanController) GetRebounds(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	results, status := scanner.GlobalScanService.GetRebounds(forceParam(c))
	respond(c, results, status, limitParam(c, 50))
}

// GetDowntrends returns exhaustion warnings on names still above trend
// GET /api/v1/scans/downtrend
func (ctrl *ScanController) GetDowntrends(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	results, status := scanner.GlobalScanService.GetDowntrends(forceParam(c))
	respond(c, results, status, limitParam(c, 50))
}

// GetMomentum returns consecutive-up-close runs
// GET /api/v1/scans/momentum?min_days=3
func (ctrl *ScanController) GetMomentum(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	minDays, err := strconv.Atoi(c.DefaultQuery("min_days", strconv.Itoa(scanner.DefaultMomentumMinDays)))
	if err != nil || minDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_days must be a positive integer"})
		return
	}
	results, status, scanErr := scanner.GlobalScanService.GetMomentum(minDays, forceParam(c))
	if scanErr != nil {
		status.Error = true
	}
	respond(c, results, status, limitParam(c, 50))
}

// GetPressureReleases returns fading-pressure candidates
// GET /api/v1/scans/pressure?min_days=3
func (ctrl *ScanController) GetPressureReleases(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	minDays, err := strconv.Atoi(c.DefaultQuery("min_days", strconv.Itoa(scanner.DefaultPressureMinDays)))
	if err != nil || minDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_days must be a positive integer"})
		return
	}
	results, status, scanErr := scanner.GlobalScanService.GetPressureReleases(minDays, forceParam(c))
	if scanErr != nil {
		status.Error = true
	}
	respond(c, results, status, limitParam(c, 50))
}

// GetDivergences returns institutional buying without price follow-through
// GET /api/v1/scans/divergence?days=5&min_net_lots=1000&max_change=0&require_shadow=false
func (ctrl *ScanController) GetDivergences(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(scanner.DefaultDivergenceWindow)))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	minNetLots, err := strconv.Atoi(c.DefaultQuery("min_net_lots", strconv.Itoa(scanner.DefaultDivergenceMinNetLots)))
	if err != nil || minNetLots < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_net_lots must be a non-negative integer"})
		return
	}
	ceiling, err := strconv.ParseFloat(c.DefaultQuery("max_change", strconv.FormatFloat(scanner.DefaultDivergenceCeiling, 'f', -1, 64)), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_change must be a number"})
		return
	}
	requireShadow := c.DefaultQuery("require_shadow", "false") == "true"
	results, status, scanErr := scanner.GlobalScanService.GetDivergences(days, minNetLots, ceiling, requireShadow, forceParam(c))
	if scanErr != nil {
		status.Error = true
	}
	respond(c, results, status, limitParam(c, 50))
}

// GetIntraday returns live in-session strength matches
// GET /api/v1/scans/intraday
func (ctrl *ScanController) GetIntraday(c *gin.Context) {
	if scanUnavailable(c) {
		return
	}
	results, status := scanner.GlobalScanService.GetIntraday(forceParam(c))
	respond(c, results, status, limitParam(c, 50))
}
