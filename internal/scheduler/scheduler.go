package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elonfeng/pulse/pkg/alert"
	"github.com/elonfeng/pulse/pkg/trend"
)

// Aggregator runs one aggregation pass.
type Aggregator interface {
	Aggregate(ctx context.Context, req trend.PageRequest) (*trend.Response, error)
}

// AlertLog remembers which topics were alerted on.
type AlertLog interface {
	AlertedSince(ctx context.Context, topicKey string, since time.Time) (bool, error)
	RecordAlert(ctx context.Context, topicKey string, launchScore int) error
	PruneAlerts(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs periodic aggregation and alerting.
type Scheduler struct {
	engine   Aggregator
	alertMgr *alert.Manager
	alertLog AlertLog
	spec     string
	minScore int
	cooldown time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a new scheduler. alertLog may be nil, in which case every run
// alerts on every qualifying topic.
func New(
	engine Aggregator,
	alertMgr *alert.Manager,
	alertLog AlertLog,
	spec string,
	minScore int,
	cooldown time.Duration,
	logger zerolog.Logger,
) *Scheduler {
	if spec == "" {
		spec = "@every 10m"
	}
	if minScore <= 0 {
		minScore = trend.LaunchNowScore
	}
	if cooldown <= 0 {
		cooldown = 6 * time.Hour
	}
	return &Scheduler{
		engine:   engine,
		alertMgr: alertMgr,
		alertLog: alertLog,
		spec:     spec,
		minScore: minScore,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}

	s.logger.Info().Msg("scheduler: initial aggregation")
	s.RunOnce(ctx)

	c.Start()
	s.logger.Info().Str("spec", s.spec).Msg("scheduler: running")

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn().Msg("scheduler: stop timeout waiting for running job")
	}
	s.logger.Info().Msg("scheduler: stopped")
	return ctx.Err()
}

// RunOnce aggregates, alerts on qualifying topics and prunes the alert log.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	resp, err := s.engine.Aggregate(ctx, trend.NewPageRequest(1, trend.MaxLimit))
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: aggregation failed")
		return
	}

	sent := s.alert(ctx, resp.Debug.RunID, resp.Topics)
	s.logger.Info().
		Str("run_id", resp.Debug.RunID).
		Int("topics", resp.Pagination.TotalCount).
		Int("alerts", sent).
		Msg("scheduler: run complete")

	if s.alertLog != nil {
		n, err := s.alertLog.PruneAlerts(ctx, s.now().Add(-s.cooldown))
		if err != nil {
			s.logger.Warn().Err(err).Msg("scheduler: prune alert log")
		} else if n > 0 {
			s.logger.Debug().Int64("pruned", n).Msg("scheduler: pruned alert log")
		}
	}
}

func (s *Scheduler) alert(ctx context.Context, runID string, topics []*trend.Topic) int {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return 0
	}

	sent := 0
	since := s.now().Add(-s.cooldown)
	for _, t := range topics {
		if t.LaunchScore < s.minScore {
			continue
		}

		if s.alertLog != nil {
			seen, err := s.alertLog.AlertedSince(ctx, t.Key(), since)
			if err != nil {
				s.logger.Warn().Err(err).Str("topic", t.Name).Msg("scheduler: alert log lookup")
				continue
			}
			if seen {
				continue
			}
		}

		n := alert.FromTopic(t)
		n.RunID = runID
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.logger.Error().Err(err).Str("topic", t.Name).Msg("scheduler: alert failed")
			continue
		}
		sent++

		if s.alertLog != nil {
			if err := s.alertLog.RecordAlert(ctx, t.Key(), t.LaunchScore); err != nil {
				s.logger.Warn().Err(err).Str("topic", t.Name).Msg("scheduler: record alert")
			}
		}
		s.logger.Info().Str("topic", t.Name).Int("score", t.LaunchScore).Msg("scheduler: alerted")
	}
	return sent
}
