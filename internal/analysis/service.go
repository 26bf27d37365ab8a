package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/llm"
	"github.com/prodsense/social-sensing-bot/internal/models"
	"github.com/prodsense/social-sensing-bot/internal/store"
)

// Net sentiment thresholds. These splits are an assumption inherited from the
// first deployment, not a derived constant; tune them before treating the
// labels as load-bearing.
const (
	negativeBelow = 40
	positiveAbove = 60
)

// Classifier issues the LLM calls the analysis pass depends on.
type Classifier interface {
	AttributeVocabulary(ctx context.Context, product string) ([]string, error)
	ClassifyComment(ctx context.Context, comment string, vocab []string) (llm.SentimentScores, error)
}

// Service classifies stored comments: per batch it derives (and caches) the
// product's attribute vocabulary, classifies each comment's sentiment and
// discussed attribute, and writes the results back to the comment rows.
type Service struct {
	config     *config.Config
	classifier Classifier
	store      store.Store
	vocab      *VocabCache
}

// NewService creates a new analysis service
func NewService(cfg *config.Config, classifier Classifier, st store.Store) *Service {
	return &Service{
		config:     cfg,
		classifier: classifier,
		store:      st,
		vocab:      NewVocabCache(),
	}
}

// Analyze scans up to limit candidate rows and updates each with sentiment
// and attribute results. With unanalyzedOnly set, only rows that were never
// classified are scanned; otherwise the most recent rows are rescanned.
// Per-row failures are counted as not-updated and never abort the batch.
func (s *Service) Analyze(ctx context.Context, limit int, unanalyzedOnly bool) models.AnalysisSummary {
	var (
		rows []models.Comment
		err  error
	)
	if unanalyzedOnly {
		rows, err = s.store.GetUnanalyzedComments(ctx, limit)
	} else {
		rows, err = s.store.GetRecentComments(ctx, limit)
	}
	if err != nil {
		logrus.Errorf("Failed to fetch comment rows for analysis: %v", err)
		return models.AnalysisSummary{}
	}
	if len(rows) == 0 {
		return models.AnalysisSummary{}
	}

	// The batch is assumed homogeneous: all rows share one product.
	vocab := s.vocabulary(ctx, batchProduct(rows))

	var (
		updated     int
		skipped     int
		mu          sync.Mutex
		wg          sync.WaitGroup
		classifySem = make(chan struct{}, s.config.AnalysisConcurrency)
		updateSem   = make(chan struct{}, s.config.UpdateConcurrency)
	)

	for _, row := range rows {
		if row.ID == 0 || strings.TrimSpace(row.Comment) == "" {
			skipped++
			continue
		}

		wg.Add(1)
		go func(row models.Comment) {
			defer wg.Done()

			classifySem <- struct{}{}
			result, err := s.classifyComment(ctx, row.Comment, vocab)
			<-classifySem
			if err != nil {
				logrus.Errorf("Failed to classify comment id=%d: %v", row.ID, err)
				return
			}

			updateSem <- struct{}{}
			err = s.store.UpdateCommentFields(ctx, row.ID, map[string]interface{}{
				"comment_sentiment":   result.CommentSentiment,
				"attribute_discussed": result.AttributeDiscussed,
				"attribute_sentiment": result.AttributeSentiment,
			})
			<-updateSem
			if err != nil {
				logrus.Errorf("Failed to update comment id=%d: %v", row.ID, err)
				return
			}

			mu.Lock()
			updated++
			mu.Unlock()
		}(row)
	}

	// Summary counts are computed only once every outstanding row is done.
	wg.Wait()

	return models.AnalysisSummary{
		Updated:      updated,
		Skipped:      skipped,
		TotalScanned: len(rows),
	}
}

func (s *Service) classifyComment(ctx context.Context, comment string, vocab []string) (models.Classification, error) {
	scores, err := s.classifier.ClassifyComment(ctx, comment, vocab)
	if err != nil {
		return models.Classification{}, err
	}

	sp, _, sn := fixTo100(scores.SentimentPositive, scores.SentimentNeutral, scores.SentimentNegative)
	ap, _, an := fixTo100(scores.AttributeSentimentPositive, scores.AttributeSentimentNeutral, scores.AttributeSentimentNegative)

	return models.Classification{
		CommentSentiment:   classifyFromNet(sp, sn),
		AttributeDiscussed: scores.AttributeDiscussed,
		AttributeSentiment: classifyFromNet(ap, an),
	}, nil
}

// vocabulary returns the product's attribute vocabulary, deriving it once per
// product per service lifetime. Any failure falls back to the built-in list.
func (s *Service) vocabulary(ctx context.Context, product string) []string {
	if product == "" {
		return fallbackVocabulary
	}
	if vocab, ok := s.vocab.Get(product); ok {
		return vocab
	}

	vocab, err := s.classifier.AttributeVocabulary(ctx, product)
	if err != nil || len(vocab) == 0 {
		logrus.Warnf("Attribute vocabulary for '%s' unavailable, using fallback: %v", product, err)
		return fallbackVocabulary
	}

	s.vocab.Put(product, vocab)
	return vocab
}

func batchProduct(rows []models.Comment) string {
	for _, row := range rows {
		if row.ProductName != "" {
			return row.ProductName
		}
	}
	return ""
}

// fixTo100 nudges a percentage triad so it sums to exactly 100: the largest
// bucket absorbs the signed delta, ties resolved by encounter order.
func fixTo100(a, b, c int) (int, int, int) {
	total := a + b + c
	if total == 100 {
		return a, b, c
	}

	delta := 100 - total
	switch {
	case a >= b && a >= c:
		a += delta
	case b >= c:
		b += delta
	default:
		c += delta
	}
	return a, b, c
}

// classifyFromNet maps net sentiment (positive - negative) onto a label.
// The 60 boundary is inclusive on the neutral side.
func classifyFromNet(positive, negative int) string {
	net := positive - negative
	switch {
	case net < negativeBelow:
		return "negative"
	case net <= positiveAbove:
		return "neutral"
	default:
		return "positive"
	}
}
