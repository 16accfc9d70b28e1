package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tw_scanner_backend/config"
	"tw_scanner_backend/routes"
	"tw_scanner_backend/scheduler"
	"tw_scanner_backend/services/categories"
	"tw_scanner_backend/services/dividend"
	"tw_scanner_backend/services/institutional"
	"tw_scanner_backend/services/market"
	"tw_scanner_backend/services/pricedata"
	"tw_scanner_backend/services/realtime"
	"tw_scanner_backend/services/scanner"

	"github.com/gin-gonic/gin"
)

// servicesReady tracks whether the background initialization finished.
// The /ready endpoint reads it so load balancers hold traffic until the
// category table and scan caches exist.
var servicesReady bool
var readyMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  TW Scanner Backend - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Health endpoints first so the platform sees the service is up
	// while the universe and caches build in the background.
	setupHealthEndpoints(router)

	session := market.NewSession(nil)
	quotes := realtime.NewQuoteClient(cfg.HTTPTimeout)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start serving immediately.
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize services and routes in the background. The symbol
	// universe needs a network round trip, so the health endpoints must
	// not wait for it.
	var jobScheduler *scheduler.Scheduler
	var barStore *pricedata.BarStore
	go func() {
		if err := categories.InitCategoryService(cfg.CategoryOverridePath, cfg.HTTPTimeout); err != nil {
			log.Printf("ERROR: Category table initialization failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		store, storeErr := pricedata.InitBarStore(cfg.DataDir)
		if storeErr != nil {
			log.Printf("Warning: bar store unavailable, running without local history cache: %v", storeErr)
			store = nil
		}
		barStore = store
		pricedata.InitPriceDataService(store, cfg.HTTPTimeout)

		if err := institutional.InitInstitutionalService(session, cfg.DataDir, cfg.HTTPTimeout); err != nil {
			log.Printf("Warning: institutional service unavailable: %v", err)
		}

		dividend.InitDividendService(cfg.HTTPTimeout)
		realtime.InitHub()

		scans := scanner.InitScanService(scanner.Options{
			Session:         session,
			Table:           categories.GlobalCategoryTable,
			Prices:          pricedata.GlobalPriceDataService,
			Flows:           institutional.GlobalInstitutionalService,
			Quotes:          quotes,
			Hub:             realtime.GlobalHub,
			Workers:         cfg.ScanWorkers,
			IntradayWorkers: cfg.IntradayWorkers,
			TTLMarket:       cfg.ScanTTLMarket,
			TTLOffHours:     cfg.ScanTTLOffHours,
			IntradayTTL:     cfg.IntradayTTLMarket,
			IntradayTTLOff:  cfg.IntradayTTLOff,
		})

		readyMutex.Lock()
		servicesReady = true
		readyMutex.Unlock()

		routes.SetupRoutes(router, session, quotes)

		jobScheduler = scheduler.NewScheduler(session, scans, institutional.GlobalInstitutionalService)
		go jobScheduler.Start()

		log.Println("Application fully initialized")
	}()

	gracefulShutdown(server, func() {
		if jobScheduler != nil {
			jobScheduler.Stop()
		}
		if realtime.GlobalHub != nil {
			realtime.GlobalHub.Shutdown()
		}
		if barStore != nil {
			if err := barStore.Close(); err == nil {
				log.Println("Bar store closed")
			}
		}
	})
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "TW Scanner Backend API",
			"version": "1.0.0",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		readyMutex.RLock()
		ready := servicesReady
		readyMutex.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Services still initializing",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/startup", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "started"})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/startup" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown waits for a termination signal, runs the cleanup
// hook, then drains the HTTP server.
func gracefulShutdown(server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown completed")
}
