package routes

import (
	"tw_scanner_backend/controllers"
	"tw_scanner_backend/services/market"
	"tw_scanner_backend/services/realtime"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, session *market.Session, quotes *realtime.QuoteClient) {
	// Initialize controllers
	scanController := controllers.NewScanController()
	institutionalController := controllers.NewInstitutionalController()
	marketController := controllers.NewMarketController(session, quotes)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Pattern scan routes
		scans := api.Group("/scans")
		{
			scans.GET("/breakout", scanController.GetBreakouts)
			scans.GET("/rebound", scanController.GetRebounds)
			scans.GET("/downtrend", scanController.GetDowntrends)
			scans.GET("/momentum", scanController.GetMomentum)
			scans.GET("/pressure", scanController.GetPressureReleases)
			scans.GET("/divergence", scanController.GetDivergences)
			scans.GET("/intraday", scanController.GetIntraday)
		}

		// Institutional flow routes
		institutional := api.Group("/institutional")
		{
			institutional.GET("/latest", institutionalController.GetLatest)
			institutional.GET("/flows", institutionalController.GetFlows)
			institutional.GET("/layout", institutionalController.GetLayout)
			institutional.GET("/layout/consensus", institutionalController.GetLayoutConsensus)
		}

		// Market data routes
		marketGroup := api.Group("/market")
		{
			marketGroup.GET("/session", marketController.GetSession)
			marketGroup.GET("/index", marketController.GetMarketIndex)
			marketGroup.GET("/history/:code", marketController.GetHistory)
			marketGroup.GET("/quotes", marketController.GetQuotes)
			marketGroup.GET("/dividends", marketController.GetDividends)
			marketGroup.GET("/symbols", marketController.GetSymbols)
			marketGroup.GET("/ws", marketController.HandleWebSocket)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Scanner API is running",
		})
	})
}
