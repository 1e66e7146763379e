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

type progressUpdater interface {
	UpdateProgress(ctx context.Context, playerUUID string, update func(*domain.Progress) error) (domain.Progress, error)
}

// SwitchMode changes the player's active game mode.
// Returns false if the mode was already active.
type SwitchMode func(ctx context.Context, playerUUID string, mode domain.GameMode) (domain.Progress, bool, error)

func BuildSwitchMode(repo progressUpdater, nowFunc func() time.Time) SwitchMode {
	return func(ctx context.Context, playerUUID string, mode domain.GameMode) (domain.Progress, bool, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.Progress{}, false, err
		}

		switched := false
		progress, err := repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
			now := nowFunc()
			var err error
			switched, err = domain.SwitchMode(progress, mode, now)
			if err != nil {
				return err
			}
			if switched {
				progress.UpdatedAt = now
			}
			return nil
		})
		if err != nil {
			return domain.Progress{}, false, fmt.Errorf("failed to switch mode: %w", err)
		}

		if switched {
			metrics.modeSwitches.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
			logging.FromContext(ctx).InfoContext(ctx, "Switched game mode", "playerUUID", playerUUID, "mode", string(mode))
		}

		return progress, switched, nil
	}
}
