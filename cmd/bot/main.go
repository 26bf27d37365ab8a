package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/analysis"
	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/discovery"
	"github.com/prodsense/social-sensing-bot/internal/ingestion"
	"github.com/prodsense/social-sensing-bot/internal/llm"
	"github.com/prodsense/social-sensing-bot/internal/scheduler"
	"github.com/prodsense/social-sensing-bot/internal/sources"
	"github.com/prodsense/social-sensing-bot/internal/store"
	"github.com/prodsense/social-sensing-bot/internal/vector"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Product Social Sensing Bot")

	// Initialize the relational table store
	tableStore, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		logrus.Fatalf("Failed to initialize table store: %v", err)
	}

	// Initialize the OpenAI client
	llmClient, err := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		logrus.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	// Initialize the Reddit source
	redditSource := sources.NewRedditSource(
		cfg.RedditClientID,
		cfg.RedditClientSecret,
		cfg.RedditUserAgent,
		cfg.MaxCommentsPerSubmission,
	)

	// Initialize services
	discoveryService := discovery.NewService(cfg, llmClient, redditSource, tableStore)
	ingestionService := ingestion.NewService(cfg, redditSource, tableStore)
	analysisService := analysis.NewService(cfg, llmClient, tableStore)
	vectorClient := vector.NewWeaviateClient(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.OpenAIAPIKey, llmClient)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, ingestionService, analysisService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server
	api := &apiServer{
		config:    cfg,
		discovery: discoveryService,
		ingestion: ingestionService,
		analysis:  analysisService,
		store:     tableStore,
		vector:    vectorClient,
	}

	router := mux.NewRouter()
	router.Use(requestLogging)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/discover", api.discoverHandler).Methods("POST")
	router.HandleFunc("/ingest", api.ingestHandler).Methods("POST")
	router.HandleFunc("/ingest/start", api.ingestHandler).Methods("POST")
	router.HandleFunc("/comments", api.commentsHandler).Methods("GET")
	router.HandleFunc("/comments/recent", api.recentCommentsHandler).Methods("GET")
	router.HandleFunc("/comments/brand/{brand}", api.commentsByBrandHandler).Methods("GET")
	router.HandleFunc("/analyse-sentiment", api.analyseHandler).Methods("POST")
	router.HandleFunc("/qa/ask", api.qaAskHandler).Methods("POST")
	router.HandleFunc("/qa/search", api.qaSearchHandler).Methods("GET")
	router.HandleFunc("/qa/sync", api.qaSyncHandler).Methods("POST")
	router.HandleFunc("/qa/stats", api.qaStatsHandler).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // ingestion runs synchronously inside the request
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// requestLogging logs every request with its duration.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.Infof("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, time.Since(start))
	})
}
