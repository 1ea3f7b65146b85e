package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/metrics"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RetentionJobParams configure a purge job for one tracking table.
type RetentionJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Target tracking.RetentionTarget
	// Metrics is optional.
	Metrics *metrics.CronJobMetrics
}

// NewRetentionJob wraps a tracking retention target as a cron job.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Target.Purge == nil {
		return nil, fmt.Errorf("purge func required for %q", params.Target.Name)
	}
	if params.Target.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive for %q", params.Target.Name)
	}
	return &retentionJob{
		logg:    params.Logger,
		db:      params.DB,
		target:  params.Target,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// NewRetentionJobs builds one job per target.
func NewRetentionJobs(logg *logger.Logger, db txRunner, m *metrics.CronJobMetrics, targets []tracking.RetentionTarget) ([]Job, error) {
	jobs := make([]Job, 0, len(targets))
	for _, target := range targets {
		job, err := NewRetentionJob(RetentionJobParams{Logger: logg, DB: db, Target: target, Metrics: m})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type retentionJob struct {
	logg    *logger.Logger
	db      txRunner
	target  tracking.RetentionTarget
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *retentionJob) Name() string { return j.target.Name + "-retention" }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.target.Cutoff(j.now())
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.target.Purge(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s retention: %w", j.target.Name, err)
	}
	j.metrics.AddPurged(j.target.Name, deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.target.Retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cron.retention.completed")
	return nil
}
