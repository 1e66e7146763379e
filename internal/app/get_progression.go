package app

import (
	"context"
	"fmt"
	"time"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

type progressGetter interface {
	GetProgress(ctx context.Context, playerUUID string) (domain.Progress, error)
}

// ProgressionView is everything the client shows about a player's progression
type ProgressionView struct {
	Progress    domain.Progress
	Achievement domain.LifetimeAchievement

	// Nil once every milestone has been passed
	NextMilestone        *domain.Milestone
	MilestoneProgressPct int
	Milestones           []domain.Milestone

	StepsToNextInfiniteMilestone int64

	DiscoveryStepsPerCell      int64
	TrainingStepsPerExperience int64

	DailyBonusAvailable bool
}

type GetProgression func(ctx context.Context, playerUUID string) (ProgressionView, error)

func BuildGetProgression(repo progressGetter, nowFunc func() time.Time) GetProgression {
	return func(ctx context.Context, playerUUID string) (ProgressionView, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return ProgressionView{}, err
		}

		progress, err := repo.GetProgress(ctx, playerUUID)
		if err != nil {
			return ProgressionView{}, fmt.Errorf("failed to get progress: %w", err)
		}

		return buildProgressionView(progress, nowFunc())
	}
}

func buildProgressionView(progress domain.Progress, now time.Time) (ProgressionView, error) {
	totalSteps := progress.Steps.TotalSteps
	achievement := progress.LifetimeAchievement()

	discoveryRate, err := domain.EffectiveRate(domain.GameModeDiscovery, achievement)
	if err != nil {
		return ProgressionView{}, fmt.Errorf("failed to get discovery rate: %w", err)
	}
	trainingRate, err := domain.EffectiveRate(domain.GameModeTraining, achievement)
	if err != nil {
		return ProgressionView{}, fmt.Errorf("failed to get training rate: %w", err)
	}

	view := ProgressionView{
		Progress:                     progress,
		Achievement:                  achievement,
		MilestoneProgressPct:         domain.MilestoneProgress(totalSteps),
		Milestones:                   domain.Milestones(progress.ClaimedMilestones),
		StepsToNextInfiniteMilestone: domain.StepsToNextInfiniteMilestone(totalSteps),
		DiscoveryStepsPerCell:        discoveryRate,
		TrainingStepsPerExperience:   trainingRate,
	}

	if next, ok := domain.NextMilestone(totalSteps); ok {
		next.RewardClaimed = false
		view.NextMilestone = &next
	}

	// Try the claim on a copy
	trial := progress.Clone()
	_, err = domain.ClaimDailyBonus(&trial, now)
	view.DailyBonusAvailable = err == nil

	return view, nil
}
