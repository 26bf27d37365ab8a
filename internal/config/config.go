package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration ("daily", "weekly" or empty to disable)
	RunSchedule string

	// Supabase table store configuration
	SupabaseURL string
	SupabaseKey string

	// Reddit API credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Weaviate vector store configuration
	WeaviateURL    string
	WeaviateAPIKey string

	// Products to track when a request doesn't name any
	DefaultProducts []string

	// Discovery settings
	LookbackDays        int
	PostsLimit          int
	MaxDiscoveryResults int

	// Ingestion settings
	TopSubredditsLimit       int
	MaxCommentsPerSubmission int

	// Analysis settings
	AnalysisLimit       int
	AnalysisConcurrency int
	UpdateConcurrency   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Debug:       getBoolEnv("DEBUG", false),
		RunSchedule: getEnv("RUN_SCHEDULE", ""),

		SupabaseURL: getEnv("SUPABASE_URL", ""),
		SupabaseKey: firstNonEmpty(os.Getenv("SUPABASE_KEY"), os.Getenv("SUPABASE_ANON_KEY")),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "ProductSensingBot/1.0"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-5-mini"),

		WeaviateURL:    getEnv("WEAVIATE_URL", "http://localhost:8080"),
		WeaviateAPIKey: getEnv("WEAVIATE_API_KEY", ""),

		DefaultProducts: getSliceEnv("DEFAULT_PRODUCTS", []string{"iPhone16"}),

		LookbackDays:        getIntEnv("DISCOVERY_LOOKBACK_DAYS", 7),
		PostsLimit:          getIntEnv("DISCOVERY_POSTS_LIMIT", 120),
		MaxDiscoveryResults: getIntEnv("MAX_DISCOVERY_RESULTS", 20),

		TopSubredditsLimit:       getIntEnv("TOP_SUBREDDITS_LIMIT", 2),
		MaxCommentsPerSubmission: getIntEnv("MAX_COMMENTS_PER_SUBMISSION", 50),

		AnalysisLimit:       getIntEnv("ANALYSIS_LIMIT", 100),
		AnalysisConcurrency: getIntEnv("ANALYSIS_CONCURRENCY", 8),
		UpdateConcurrency:   getIntEnv("UPDATE_CONCURRENCY", 10),
	}

	if cfg.LookbackDays < 1 {
		cfg.LookbackDays = 1
	}
	if cfg.PostsLimit < 1 {
		cfg.PostsLimit = 1
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RunSchedule != "" && c.RunSchedule != "daily" && c.RunSchedule != "weekly" {
		return fmt.Errorf("RUN_SCHEDULE must be 'daily', 'weekly' or unset")
	}

	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}

	if c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY (or SUPABASE_ANON_KEY) is required")
	}

	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
