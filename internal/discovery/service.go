package discovery

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/models"
	"github.com/prodsense/social-sensing-bot/internal/sources"
	"github.com/prodsense/social-sensing-bot/internal/store"
)

const maxMeasuredSubreddits = 20

// Suggester provides LLM-assisted candidate subreddit names and search
// queries for a product batch.
type Suggester interface {
	SuggestSubreddits(ctx context.Context, products []string) ([]string, error)
	SuggestQueries(ctx context.Context, products []string) ([]string, error)
}

// Service runs the suggestion -> fetch -> aggregate -> rank pipeline and
// persists the ranked channels with replace semantics.
type Service struct {
	config    *config.Config
	suggester Suggester
	source    sources.Source
	store     store.Store
}

// NewService creates a new discovery service
func NewService(cfg *config.Config, suggester Suggester, source sources.Source, st store.Store) *Service {
	return &Service{
		config:    cfg,
		suggester: suggester,
		source:    source,
		store:     st,
	}
}

// Discover runs one discovery run for a product batch and returns ranked
// channels per platform. Reddit results are persisted by wholesale
// replacement of the platform's channel rows.
func (s *Service) Discover(ctx context.Context, products []string) (map[string][]models.ChannelCandidate, error) {
	reddit, err := s.discoverReddit(ctx, products)
	if err != nil {
		return nil, err
	}

	if len(reddit) > 0 {
		summary := s.store.ReplaceChannels(ctx, "reddit", reddit)
		logrus.Infof("Replaced reddit channels: deleted=%d inserted=%d errors=%d",
			summary.Deleted, summary.Inserted, summary.Errors)
	}

	return map[string][]models.ChannelCandidate{"reddit": reddit}, nil
}

// discoverReddit measures suggested subreddits and suggested queries into one
// shared accumulator. Suggestion failure is a hard failure for the batch;
// per-channel fetch failures only cost that channel's signal.
func (s *Service) discoverReddit(ctx context.Context, products []string) ([]models.ChannelCandidate, error) {
	suggestedSubs, err := s.suggester.SuggestSubreddits(ctx, products)
	if err != nil {
		return nil, err
	}
	suggestedQueries, err := s.suggester.SuggestQueries(ctx, products)
	if err != nil {
		return nil, err
	}

	if !s.source.IsEnabled() {
		logrus.Warn("Reddit source not configured; discovery yields empty results")
		return nil, nil
	}

	earliest := float64(time.Now().Add(-time.Duration(s.config.LookbackDays) * 24 * time.Hour).Unix())
	neutralQuery := "*"
	if len(products) > 0 && products[0] != "" {
		neutralQuery = products[0]
	}

	agg := newAggregator("reddit")

	// Pass A: recent posts of each suggested subreddit. The channel name is
	// known from context even when the payload omits it. An empty new-posts
	// feed falls back to a filtered search so one quiet channel doesn't drop
	// out of the measurement entirely.
	measured := suggestedSubs
	if len(measured) > maxMeasuredSubreddits {
		measured = measured[:maxMeasuredSubreddits]
	}
	for _, subreddit := range measured {
		submissions, err := s.source.ListNew(ctx, subreddit, s.config.PostsLimit)
		if err != nil || len(submissions) == 0 {
			if err != nil {
				logrus.Debugf("list-new failed for r/%s: %v", subreddit, err)
			}
			submissions, err = s.source.Search(ctx, subreddit, neutralQuery, "new", "week", s.config.PostsLimit)
			if err != nil {
				logrus.Warnf("Reddit fetch failed for r/%s: %v", subreddit, err)
				continue
			}
		}
		s.fold(agg, submissions, earliest)
	}

	// Pass B: suggested queries across the global feed. Here the channel name
	// must come from each submission's own field; records lacking it are
	// dropped inside fold.
	for _, query := range suggestedQueries {
		submissions, err := s.source.Search(ctx, "all", query, "new", "week", s.config.PostsLimit)
		if err != nil {
			logrus.Warnf("Reddit search failed for query '%s': %v", query, err)
			continue
		}
		s.fold(agg, submissions, earliest)
	}

	return agg.finalize(s.config.MaxDiscoveryResults), nil
}

func (s *Service) fold(agg *aggregator, submissions []models.Submission, earliest float64) {
	for _, submission := range submissions {
		if !createdAfter(submission, earliest) {
			continue
		}
		agg.bump(submission.Subreddit, submission)
	}
}

// createdAfter applies the lookback window. A missing creation time is
// treated as always recent.
func createdAfter(submission models.Submission, earliest float64) bool {
	if submission.CreatedUTC == 0 {
		return true
	}
	return submission.CreatedUTC >= earliest
}
