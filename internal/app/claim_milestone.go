package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/logging"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

type ClaimMilestoneReward func(ctx context.Context, playerUUID string, thresholdSteps int64) (domain.RewardItem, domain.Progress, error)

func BuildClaimMilestoneReward(repo progressUpdater, nowFunc func() time.Time) ClaimMilestoneReward {
	return func(ctx context.Context, playerUUID string, thresholdSteps int64) (domain.RewardItem, domain.Progress, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.RewardItem{}, domain.Progress{}, err
		}

		var item domain.RewardItem
		progress, err := repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
			now := nowFunc()
			var err error
			item, err = domain.ClaimMilestoneReward(progress, thresholdSteps, now)
			if err != nil {
				return err
			}
			progress.UpdatedAt = now
			return nil
		})
		if err != nil {
			return domain.RewardItem{}, domain.Progress{}, fmt.Errorf("failed to claim milestone reward: %w", err)
		}

		metrics.milestonesClaimed.Add(ctx, 1, metric.WithAttributes(attribute.String("rarity", string(item.Rarity))))
		logging.FromContext(ctx).InfoContext(
			ctx,
			"Claimed milestone reward",
			"playerUUID", playerUUID,
			"threshold", thresholdSteps,
			"rarity", string(item.Rarity),
		)

		return item, progress, nil
	}
}
