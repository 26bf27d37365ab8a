package sources

import (
	"context"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

// Source is the contract for a discussion platform that can be measured and
// ingested. Listing and search return normalized submissions; comment fetch
// returns rows ready for the comment table.
type Source interface {
	GetName() string
	IsEnabled() bool
	ListNew(ctx context.Context, subreddit string, limit int) ([]models.Submission, error)
	Search(ctx context.Context, subreddit, query, sort, timeFilter string, limit int) ([]models.Submission, error)
	CommentsForProduct(ctx context.Context, product, subreddit string) ([]models.Comment, error)
}
