package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/llm"
	"github.com/prodsense/social-sensing-bot/internal/sources"
	"github.com/prodsense/social-sensing-bot/internal/store"
	"github.com/prodsense/social-sensing-bot/internal/vector"
)

func main() {
	fmt.Println("🔍 Product Social Sensing Bot - API Connectivity Test")
	fmt.Println("=====================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing external collaborators...")
	fmt.Println(strings.Repeat("-", 40))

	testReddit(ctx, cfg)
	testStore(ctx, cfg)
	testOpenAI(ctx, cfg)
	testWeaviate(ctx, cfg)

	fmt.Println("\n✅ API connectivity test completed!")
}

func testReddit(ctx context.Context, cfg *config.Config) {
	source := sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent, cfg.MaxCommentsPerSubmission)
	if !source.IsEnabled() {
		fmt.Println("⚠️  Reddit: credentials not configured")
		return
	}
	submissions, err := source.ListNew(ctx, "all", 5)
	if err != nil {
		fmt.Printf("❌ Reddit: %v\n", err)
		return
	}
	fmt.Printf("✅ Reddit: fetched %d submissions\n", len(submissions))
}

func testStore(ctx context.Context, cfg *config.Config) {
	tableStore, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		fmt.Printf("❌ Supabase: %v\n", err)
		return
	}
	comments, err := tableStore.GetRecentComments(ctx, 1)
	if err != nil {
		fmt.Printf("❌ Supabase: %v\n", err)
		return
	}
	fmt.Printf("✅ Supabase: comment table reachable (%d rows sampled)\n", len(comments))
}

func testOpenAI(ctx context.Context, cfg *config.Config) {
	client, err := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		fmt.Printf("❌ OpenAI: %v\n", err)
		return
	}
	names, err := client.SuggestSubreddits(ctx, cfg.DefaultProducts)
	if err != nil {
		fmt.Printf("❌ OpenAI: %v\n", err)
		return
	}
	fmt.Printf("✅ OpenAI: suggested %d subreddits for %v\n", len(names), cfg.DefaultProducts)
}

func testWeaviate(ctx context.Context, cfg *config.Config) {
	client := vector.NewWeaviateClient(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.OpenAIAPIKey, nil)
	stats := client.GetStats(ctx)
	if stats.Status != "connected" {
		fmt.Printf("⚠️  Weaviate: %s\n", stats.Status)
		return
	}
	fmt.Printf("✅ Weaviate: connected, %d comments stored\n", stats.TotalComments)
}
