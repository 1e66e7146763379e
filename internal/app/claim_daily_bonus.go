package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

// ClaimDailyBonus grants today's lifetime bonus cells. Returns the number of cells granted.
type ClaimDailyBonus func(ctx context.Context, playerUUID string) (int64, domain.Progress, error)

func BuildClaimDailyBonus(repo progressUpdater, nowFunc func() time.Time) ClaimDailyBonus {
	return func(ctx context.Context, playerUUID string) (int64, domain.Progress, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return 0, domain.Progress{}, err
		}

		var bonus int64
		progress, err := repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
			now := nowFunc()
			var err error
			bonus, err = domain.ClaimDailyBonus(progress, now)
			if err != nil {
				return err
			}
			progress.UpdatedAt = now
			return nil
		})
		if err != nil {
			return 0, domain.Progress{}, fmt.Errorf("failed to claim daily bonus: %w", err)
		}

		metrics.dailyBonusesClaimed.Add(ctx, 1)
		metrics.resourcesGranted.Add(ctx, bonus, metric.WithAttributes(attribute.String("resource", "cells")))

		return bonus, progress, nil
	}
}
