package rescore

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/topteen77/indo-israel-sub001/internal/config"
	"github.com/topteen77/indo-israel-sub001/internal/hermes"
	"github.com/topteen77/indo-israel-sub001/internal/metrics"
	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
	"github.com/topteen77/indo-israel-sub001/internal/store"
)

// Sweeper re-evaluates stored assessments whose age or passport terms
// may have drifted since they were scored.
type Sweeper struct {
	store      store.Store
	hermes     hermes.Client
	scorer     *scoring.Scorer
	classifier *routing.Classifier
	interval   time.Duration
	maxAge     time.Duration
	batchSize  int
	logger     *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Summary describes one sweep pass.
type Summary struct {
	Examined int
	Changed  int
	Failed   int
}

func New(s store.Store, h hermes.Client, sc *scoring.Scorer, c *routing.Classifier, cfg *config.Config, logger *slog.Logger) *Sweeper {
	interval := cfg.RescoreInterval()
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		store:      s,
		hermes:     h,
		scorer:     sc,
		classifier: c,
		interval:   interval,
		maxAge:     cfg.RescoreMaxAge(),
		batchSize:  cfg.Rescore.BatchSize,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sum := s.RunOnce(ctx)
			s.logger.Info("rescore sweep complete", "examined", sum.Examined, "changed", sum.Changed, "failed", sum.Failed)
			s.publishStats(ctx)
		}
	}
}

// RunOnce re-scores one batch of stale assessments. Every examined
// application is persisted so its scored_at moves forward; a rescored
// event is published only when the total changed.
func (s *Sweeper) RunOnce(ctx context.Context) Summary {
	var sum Summary
	now := s.scorer.Now()

	apps, err := s.store.ListStaleAssessments(ctx, now.Add(-s.maxAge), s.batchSize)
	var skipped *store.SkippedRowsError
	switch {
	case errors.As(err, &skipped):
		sum.Failed += len(skipped.Rows)
		for _, row := range skipped.Rows {
			s.logger.Error("skipping undecodable application", "application_id", row.ID, "column", row.Column, "error", row.Err)
		}
	case err != nil:
		s.logger.Error("failed to list stale assessments", "error", err)
		return sum
	}

	for _, app := range apps {
		sum.Examined++
		previous := app.Score.Total

		app.Score = s.scorer.ScoreAt(&app.Profile, now)
		app.Routing = s.classifier.Classify(app.Category, app.Profile.ExperienceYears)
		changed := app.Score.Total != previous

		if err := s.store.UpdateAssessment(ctx, app); err != nil {
			sum.Failed++
			s.logger.Warn("failed to update assessment", "application_id", app.ID, "error", err)
			continue
		}
		metrics.ApplicationsRescored.WithLabelValues(strconv.FormatBool(changed)).Inc()
		if !changed {
			continue
		}

		sum.Changed++
		s.logger.Info("assessment changed",
			"application_id", app.ID,
			"previous_score", previous,
			"score", app.Score.Total,
		)
		s.publish(hermes.SubjectApplicationRescored(app.ID.String()), "rescored", hermes.ApplicationRescoredEvent{
			ApplicationID:    app.ID.String(),
			PreviousScore:    previous,
			Score:            app.Score.Total,
			ProcessingStream: string(app.Routing.ProcessingStream),
			Priority:         string(app.Routing.Priority),
			RescoredAt:       now,
		})
	}
	return sum
}

func (s *Sweeper) publishStats(ctx context.Context) {
	if s.hermes == nil {
		return
	}
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		s.logger.Warn("failed to load stats", "error", err)
		return
	}
	s.publish(hermes.SubjectRecruitStats, "stats", hermes.StatsEvent{
		Total:      stats.Total,
		AvgScore:   stats.AvgScore,
		ByStream:   stats.ByStream,
		ByPriority: stats.ByPriority,
		Timestamp:  s.scorer.Now(),
	})
}

func (s *Sweeper) publish(subject, event string, data interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, data); err != nil {
		metrics.EventPublishFailures.WithLabelValues(event).Inc()
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
