// Package scheduler raises preventive maintenance requests for assets whose
// maintenance date has arrived.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/metrics"
	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

// PreventiveTitle is the title of every scheduler-raised request.
const PreventiveTitle = "Preventive Maintenance"

type Options struct {
	Interval   time.Duration
	RunOnStart bool
	// Now is the clock used to derive today's date. Defaults to time.Now.
	Now func() time.Time
}

// Result summarizes one scheduler pass.
type Result struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Scheduler struct {
	store  repository.Store
	opts   Options
	logger *slog.Logger
}

func New(store repository.Store, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: store, opts: opts, logger: logger}
}

// Start runs passes until ctx is cancelled. Errors are logged and never stop
// the loop.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", slog.Duration("interval", s.opts.Interval))

	if s.opts.RunOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("scheduler pass failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("scheduler pass complete",
		slog.Int("scanned", res.Scanned),
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
}

// RunOnce creates at most one open preventive request per due asset. Failures
// on individual assets are counted in the result rather than returned.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	const op = "scheduler.run"

	now := s.opts.Now()
	today := now.Format(models.DateLayout)

	due, err := s.store.ListAssetsDue(ctx, today)
	if err != nil {
		return Result{}, apperr.Storage(op, err)
	}

	res := Result{Scanned: len(due)}
	for i := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		asset := &due[i]
		created, err := s.raise(ctx, asset, now)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Error("preventive request failed",
				slog.Int64("asset_id", asset.ID),
				slog.String("error", err.Error()))
		case created:
			res.Created++
			s.logger.Info("preventive request created",
				slog.Int64("asset_id", asset.ID),
				slog.String("due_date", *asset.NextMaintenance))
		default:
			res.Skipped++
		}
	}

	metrics.ObserveScheduler("created", res.Created)
	metrics.ObserveScheduler("skipped", res.Skipped)
	metrics.ObserveScheduler("failed", res.Failed)
	metrics.SetSchedulerLastRun(now)
	return res, nil
}

func (s *Scheduler) raise(ctx context.Context, asset *models.Asset, now time.Time) (bool, error) {
	const op = "scheduler.raise"

	if asset.NextMaintenance == nil {
		return false, nil
	}
	dueDate := *asset.NextMaintenance

	var created bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		open, err := tx.HasOpenPreventiveRequest(ctx, asset.ID)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if open {
			return nil
		}

		_, created, err = tx.CreatePreventiveRequest(ctx, &models.MaintenanceRequest{
			AssetID:     &asset.ID,
			Title:       PreventiveTitle,
			Description: fmt.Sprintf("Scheduled maintenance for %s due %s", asset.Name, dueDate),
			Location:    asset.Location,
			DueDate:     &dueDate,
		})
		if err != nil {
			return apperr.Storage(op, err)
		}

		if asset.MaintenanceIntervalDays > 0 {
			next, err := nextDue(dueDate, asset.MaintenanceIntervalDays, now)
			if err != nil {
				return apperr.Validation(op, err.Error())
			}
			if err := tx.SetNextMaintenance(ctx, asset.ID, next); err != nil {
				return apperr.Storage(op, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, apperr.FromTx(op, err)
	}

	return created, nil
}

// nextDue advances due by whole intervals until it falls after today.
func nextDue(due string, intervalDays int, now time.Time) (string, error) {
	d, err := time.Parse(models.DateLayout, due)
	if err != nil {
		return "", fmt.Errorf("next_maintenance %q is not a %s date", due, models.DateLayout)
	}
	today := now.Format(models.DateLayout)
	for d.Format(models.DateLayout) <= today {
		d = d.AddDate(0, 0, intervalDays)
	}
	return d.Format(models.DateLayout), nil
}
