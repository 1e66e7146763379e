package app

import (
	"context"
	"fmt"
	"time"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

type playerCreator interface {
	CreateProgress(ctx context.Context, progress domain.Progress) (domain.Progress, error)
}

// RegisterPlayer creates empty progression for a new player.
// Registering an existing player returns their stored progression.
type RegisterPlayer func(ctx context.Context, playerUUID string) (domain.Progress, error)

func BuildRegisterPlayer(repo playerCreator, nowFunc func() time.Time) RegisterPlayer {
	return func(ctx context.Context, playerUUID string) (domain.Progress, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.Progress{}, err
		}

		progress, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, nowFunc()))
		if err != nil {
			// NOTE: ProgressRepository implementations handle their own error reporting
			return domain.Progress{}, fmt.Errorf("failed to create progress: %w", err)
		}

		return progress, nil
	}
}
