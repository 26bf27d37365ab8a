package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/models"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	RunOnce(ctx context.Context, products []string, explicitChannels []string) models.IngestSummary
}

// Analyzer runs one analysis pass.
type Analyzer interface {
	Analyze(ctx context.Context, limit int, unanalyzedOnly bool) models.AnalysisSummary
}

// Service schedules periodic ingestion+analysis runs for the default
// products. With no RUN_SCHEDULE configured it stays dormant.
type Service struct {
	config   *config.Config
	ingester Ingester
	analyzer Analyzer
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, ingester Ingester, analyzer Analyzer) *Service {
	return &Service{
		config:   cfg,
		ingester: ingester,
		analyzer: analyzer,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled runs
func (s *Service) Start() error {
	var cronExpression string

	switch s.config.RunSchedule {
	case "daily":
		// Run daily at 9 AM UTC
		cronExpression = "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		cronExpression = "0 0 9 * * MON"
	default:
		logrus.Info("No run schedule configured; scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled ingestion+analysis run")
		ctx := context.Background()

		summary := s.ingester.RunOnce(ctx, s.config.DefaultProducts, nil)
		logrus.Infof("Scheduled ingestion done: ingested=%d failed=%d", summary.Ingested, summary.Failed)

		analysis := s.analyzer.Analyze(ctx, s.config.AnalysisLimit, false)
		logrus.Infof("Scheduled analysis done: updated=%d skipped=%d scanned=%d",
			analysis.Updated, analysis.Skipped, analysis.TotalScanned)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule", s.config.RunSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
