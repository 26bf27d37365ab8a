package store

import (
	"context"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

// Store defines the contract for the relational table store. Channel
// replacement is best-effort and never returns an error; everything else
// reports failures explicitly so callers can count them.
type Store interface {
	ReplaceChannels(ctx context.Context, platform string, channels []models.ChannelCandidate) models.ReplaceSummary
	TopChannels(ctx context.Context, platform string, limit int) []string
	TopChannel(ctx context.Context, platform string) string

	InsertComment(ctx context.Context, comment models.Comment) error
	GetComments(ctx context.Context, productName string, limit int) ([]models.Comment, error)
	GetCommentsByBrand(ctx context.Context, brandName string, limit int) ([]models.Comment, error)
	GetRecentComments(ctx context.Context, limit int) ([]models.Comment, error)
	GetUnanalyzedComments(ctx context.Context, limit int) ([]models.Comment, error)
	DeleteCommentsForProduct(ctx context.Context, productName string) int
	DeleteAllComments(ctx context.Context) int
	UpdateCommentFields(ctx context.Context, commentID int64, fields map[string]interface{}) error
}
