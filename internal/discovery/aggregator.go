package discovery

import (
	"sort"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

// Composite score weights. Mention frequency dominates as the proxy for
// topical relevance; raw engagement score and comment volume are secondary
// signals. A heuristic, not a learned model.
const (
	mentionsWeight = 0.6
	avgScoreWeight = 0.2
	commentsWeight = 0.2
)

// aggregator folds submissions into per-channel running metrics. It is
// created empty at the start of a discovery run and carries no state between
// runs. Insertion order is remembered so ranking ties break deterministically.
type aggregator struct {
	byChannel map[string]*models.ChannelCandidate
	order     []string
	platform  string
}

func newAggregator(platform string) *aggregator {
	return &aggregator{
		byChannel: make(map[string]*models.ChannelCandidate),
		platform:  platform,
	}
}

// bump folds one submission into the channel's accumulator. Submissions
// without a resolvable channel name are skipped by the caller. While folding,
// AvgScore accumulates the raw score sum; finalize converts it to a mean.
func (a *aggregator) bump(channel string, submission models.Submission) {
	if channel == "" {
		return
	}

	candidate, ok := a.byChannel[channel]
	if !ok {
		candidate = &models.ChannelCandidate{
			Platform:  a.platform,
			ChannelID: channel,
			Name:      "r/" + channel,
		}
		a.byChannel[channel] = candidate
		a.order = append(a.order, channel)
	}

	candidate.Metrics.Mentions++
	candidate.Metrics.AvgScore += submission.Score
	candidate.Metrics.Comments += submission.NumComments
}

// finalize converts accumulated sums into true means, computes the composite
// score, and returns the channels ranked descending. The sort is stable, so
// equal scores keep insertion order. The result is truncated to maxResults.
func (a *aggregator) finalize(maxResults int) []models.ChannelCandidate {
	results := make([]models.ChannelCandidate, 0, len(a.order))
	for _, channel := range a.order {
		candidate := *a.byChannel[channel]

		mentions := candidate.Metrics.Mentions
		if mentions < 1 {
			mentions = 1
		}
		candidate.Metrics.AvgScore /= float64(mentions)
		candidate.Score = float64(candidate.Metrics.Mentions)*mentionsWeight +
			candidate.Metrics.AvgScore*avgScoreWeight +
			float64(candidate.Metrics.Comments)*commentsWeight

		results = append(results, candidate)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if maxResults >= 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
