package controllers

import (
	"net/http"
	"strconv"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/categories"
	"tw_scanner_backend/services/dividend"
	"tw_scanner_backend/services/indicators"
	"tw_scanner_backend/services/market"
	"tw_scanner_backend/services/pricedata"
	"tw_scanner_backend/services/realtime"

	"github.com/gin-gonic/gin"
)

// MarketController handles market data endpoints
type MarketController struct {
	Session *market.Session
	Quotes  *realtime.QuoteClient
}

// NewMarketController creates a new market controller
func NewMarketController(session *market.Session, quotes *realtime.QuoteClient) *MarketController {
	return &MarketController{Session: session, Quotes: quotes}
}

// GetSession reports the current session phase
// GET /api/v1/market/session
func (ctrl *MarketController) GetSession(c *gin.Context) {
	now := ctrl.Session.Now()
	c.JSON(http.StatusOK, gin.H{
		"time":        now.Format("2006-01-02 15:04:05"),
		"phase":       ctrl.Session.Phase(),
		"trading_day": ctrl.Session.IsTradingDay(now),
	})
}

// GetMarketIndex returns the current weighted index level
// GET /api/v1/market/index
func (ctrl *MarketController) GetMarketIndex(c *gin.Context) {
	if pricedata.GlobalPriceDataService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price data service not initialized"})
		return
	}
	quote, err := pricedata.GlobalPriceDataService.GetIndexQuote()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": true, "message": "index quote unavailable"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetHistory returns one symbol's daily bars with moving-average overlays
// GET /api/v1/market/history/:code?days=120
func (ctrl *MarketController) GetHistory(c *gin.Context) {
	if pricedata.GlobalPriceDataService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Price data service not initialized"})
		return
	}

	code := c.Param("code")
	days, err := strconv.Atoi(c.DefaultQuery("days", "120"))
	if err != nil || days < 1 || days > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 1000"})
		return
	}

	series, err := pricedata.GlobalPriceDataService.GetHistory(code, days)
	if err != nil || len(series) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no history for symbol"})
		return
	}

	closes := series.Closes()
	name := ""
	if categories.GlobalCategoryTable != nil {
		name = categories.GlobalCategoryTable.Name(code)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       code,
		"name":       name,
		"bars":       series,
		"count":      len(series),
		"ma5":        indicators.SMA(closes, 5),
		"ma10":       indicators.SMA(closes, 10),
		"ma20":       indicators.SMA(closes, 20),
		"ma60":       indicators.SMA(closes, 60),
		"indicators": indicators.Snapshot(series),
	})
}

// GetQuotes returns live quotes for repeated code params
// GET /api/v1/market/quotes?code=2330&code=2454
func (ctrl *MarketController) GetQuotes(c *gin.Context) {
	if ctrl.Quotes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quote client not initialized"})
		return
	}
	codes := c.QueryArray("code")
	if len(codes) == 0 || len(codes) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "between 1 and 100 code params required"})
		return
	}
	quotes := ctrl.Quotes.GetQuotes(codes)
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// GetDividends returns upcoming ex-dividend events
// GET /api/v1/market/dividends?days=14
func (ctrl *MarketController) GetDividends(c *gin.Context) {
	if dividend.GlobalDividendService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Dividend service not initialized"})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "14"))
	if err != nil || days < 1 || days > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
		return
	}

	events, err := dividend.GlobalDividendService.Upcoming(days)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"results": []models.DividendEvent{}, "count": 0, "error": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": events, "count": len(events)})
}

// GetSymbols lists the scan universe
// GET /api/v1/market/symbols
func (ctrl *MarketController) GetSymbols(c *gin.Context) {
	if categories.GlobalCategoryTable == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Category table not initialized"})
		return
	}
	codes := categories.GlobalCategoryTable.Codes()
	c.JSON(http.StatusOK, gin.H{"codes": codes, "count": len(codes)})
}

// HandleWebSocket upgrades the connection onto the broadcast hub
// GET /api/v1/market/ws
func (ctrl *MarketController) HandleWebSocket(c *gin.Context) {
	if realtime.GlobalHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "WebSocket hub not initialized"})
		return
	}
	realtime.GlobalHub.HandleWebSocket(c.Writer, c.Request)
}
