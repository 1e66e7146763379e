package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/steplings/progression/internal/adapters/cache"
	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/logging"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

type stepSyncRepository interface {
	RecordStepSync(
		ctx context.Context,
		playerUUID string,
		event domain.StepSyncEvent,
		apply func(*domain.Progress) (domain.Resources, error),
	) (domain.Progress, domain.Resources, error)
}

type StepSyncResult struct {
	Progress domain.Progress
	Granted  domain.Resources
	// The event had already been applied. Nothing was granted this time.
	Duplicate bool
}

// SyncSteps adds a batch of walked steps to the player's progression.
// Each event ID is applied at most once per player.
type SyncSteps func(ctx context.Context, playerUUID string, event domain.StepSyncEvent) (StepSyncResult, error)

func stepSyncCacheKey(playerUUID, eventID string) string {
	return fmt.Sprintf("%s/%s", playerUUID, eventID)
}

func recordGranted(ctx context.Context, steps int64, granted domain.Resources) {
	metrics.stepsSynced.Add(ctx, steps)
	if granted.IsZero() {
		return
	}
	if granted.Cells > 0 {
		metrics.resourcesGranted.Add(ctx, granted.Cells, metric.WithAttributes(attribute.String("resource", "cells")))
	}
	if granted.ExperiencePoints > 0 {
		metrics.resourcesGranted.Add(ctx, granted.ExperiencePoints, metric.WithAttributes(attribute.String("resource", "experience")))
	}
}

func BuildSyncSteps(syncCache cache.Cache[StepSyncResult], repo stepSyncRepository, nowFunc func() time.Time) SyncSteps {
	return func(ctx context.Context, playerUUID string, event domain.StepSyncEvent) (StepSyncResult, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return StepSyncResult{}, err
		}
		if event.EventID == "" {
			return StepSyncResult{}, domain.ErrMissingEventID
		}
		if event.Steps < 0 {
			return StepSyncResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidStepCount, event.Steps)
		}

		ctx = logging.WithPlayer(ctx, playerUUID)
		logger := logging.FromContext(ctx)

		// Retries of an event that is still being applied wait for the first attempt here.
		// The repository rejects retries that arrive after the cache entry has expired.
		result, created, err := cache.GetOrCreate(ctx, syncCache, stepSyncCacheKey(playerUUID, event.EventID), func() (StepSyncResult, error) {
			progress, granted, err := repo.RecordStepSync(ctx, playerUUID, event, func(progress *domain.Progress) (domain.Resources, error) {
				granted, err := domain.ApplyStepSync(progress, event)
				if err != nil {
					return domain.Resources{}, err
				}
				progress.UpdatedAt = nowFunc()
				return granted, nil
			})
			if errors.Is(err, domain.ErrDuplicateSyncEvent) {
				return StepSyncResult{Progress: progress, Duplicate: true}, nil
			}
			if err != nil {
				return StepSyncResult{}, err
			}

			recordGranted(ctx, event.Steps, granted)
			logger.InfoContext(
				ctx,
				"Synced steps",
				"eventID", event.EventID,
				"steps", event.Steps,
				"totalSteps", progress.Steps.TotalSteps,
				"cells", granted.Cells,
				"experience", granted.ExperiencePoints,
			)

			return StepSyncResult{Progress: progress, Granted: granted}, nil
		})
		if err != nil {
			// NOTE: ProgressRepository implementations handle their own error reporting
			return StepSyncResult{}, fmt.Errorf("failed to sync steps: %w", err)
		}

		if !created {
			result.Granted = domain.Resources{}
			result.Duplicate = true
		}
		if result.Duplicate {
			logger.InfoContext(ctx, "Ignored duplicate step sync", "eventID", event.EventID)
		}

		return result, nil
	}
}
