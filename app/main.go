package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedfuse/feedfuse/app/api"
	"github.com/feedfuse/feedfuse/app/cfg"
	"github.com/feedfuse/feedfuse/app/feed"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting FeedFuse server...")

	// Load sources configuration
	log.Printf("Loading sources configuration from %s...", appCfg.SourcesFile)
	configCache := feed.NewConfigCache(appCfg.SourcesFile)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load sources configuration:", err)
	}
	log.Printf("Loaded %d sources", configCache.GetSourceCount())

	// Initialize core components
	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}
	aggregator := feed.NewAggregator(httpClient, appCfg.UserAgent)

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, aggregator)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Landing page:  http://localhost:%s/", appCfg.Port)
		log.Printf("  RSS feed:      http://localhost:%s/rss", appCfg.Port)
		log.Printf("  Widget:        http://localhost:%s/widget", appCfg.Port)
		log.Printf("  JSON items:    http://localhost:%s/api/items", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List sources:  http://localhost:%s/api/sources (requires API key)", appCfg.Port)
			log.Printf("  Reload config: http://localhost:%s/api/sources/reload (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  Management endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("FeedFuse server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("FeedFuse server shutdown complete")
}
