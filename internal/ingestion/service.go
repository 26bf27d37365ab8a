package ingestion

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/models"
	"github.com/prodsense/social-sensing-bot/internal/sources"
	"github.com/prodsense/social-sensing-bot/internal/store"
)

// Service drives comment ingestion: per run it wipes prior comments, resolves
// the top-ranked channels per product, fetches comments and bulk-inserts the
// rows. Products are processed sequentially; a failure in one product never
// aborts the batch.
type Service struct {
	config *config.Config
	source sources.Source
	store  store.Store
}

// NewService creates a new ingestion service
func NewService(cfg *config.Config, source sources.Source, st store.Store) *Service {
	return &Service{
		config: cfg,
		source: source,
		store:  st,
	}
}

// RunOnce runs one ingestion pass for the given products. Explicit channels,
// when provided by the caller, override channel resolution for every product.
func (s *Service) RunOnce(ctx context.Context, products []string, explicitChannels []string) models.IngestSummary {
	runID := uuid.NewString()
	logrus.Infof("Starting ingestion run %s for products: %v", runID, products)

	// Global cleanup: delete all comments before a fresh run.
	deleted := s.store.DeleteAllComments(ctx)
	logrus.Infof("Deleted all existing comments: %d", deleted)

	var summary models.IngestSummary
	for _, product := range products {
		ingested, failed := s.ingestProduct(ctx, product, explicitChannels)
		summary.Ingested += ingested
		summary.Failed += failed
	}

	logrus.Infof("Ingestion run %s completed: ingested=%d failed=%d", runID, summary.Ingested, summary.Failed)
	return summary
}

// ingestProduct handles one product. Any failure is logged and reported as
// zero ingested, zero failed for the product so the batch continues.
func (s *Service) ingestProduct(ctx context.Context, product string, explicitChannels []string) (ingested, failed int) {
	deleted := s.store.DeleteCommentsForProduct(ctx, product)
	logrus.Infof("Product='%s' deleted_existing=%d", product, deleted)

	channels := s.resolveChannels(ctx, explicitChannels)
	logrus.Infof("Product='%s' top_subreddits=%v", product, channels)

	var comments []models.Comment
	for _, channel := range channels {
		part, err := s.source.CommentsForProduct(ctx, product, channel)
		if err != nil {
			logrus.Errorf("Failed to fetch comments for product '%s' from r/%s: %v", product, channel, err)
			continue
		}
		comments = append(comments, part...)
	}
	logrus.Infof("Product='%s' fetched_comments=%d", product, len(comments))

	for _, comment := range comments {
		if err := s.store.InsertComment(ctx, comment); err != nil {
			logrus.Errorf("Failed to insert comment for product '%s': %v", product, err)
			failed++
			continue
		}
		ingested++
	}
	logrus.Infof("Product='%s' inserted=%d failed=%d", product, ingested, failed)
	return ingested, failed
}

// resolveChannels picks the channels to ingest from: explicitly requested
// names win; else the top-K replaced channels from the store; else a single
// best-effort top channel; else the global wildcard channel.
func (s *Service) resolveChannels(ctx context.Context, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}

	channels := s.store.TopChannels(ctx, "reddit", s.config.TopSubredditsLimit)
	if len(channels) > 0 {
		return channels
	}

	if top := s.store.TopChannel(ctx, "reddit"); top != "" {
		return []string{top}
	}
	return []string{"all"}
}
