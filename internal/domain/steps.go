package domain

import (
	"fmt"
	"math"
	"time"
)

type StepTotals struct {
	// Lifetime steps. Never decreases.
	TotalSteps int64

	Mode GameMode
	// Steps walked since Mode became active
	StepsInCurrentMode int64
	// Resource units (cells or experience) already granted for StepsInCurrentMode
	CreditedInCurrentMode int64
	ModeSwitchedAt        time.Time
}

// StepSyncEvent is a batch of steps reported by the step counter
type StepSyncEvent struct {
	EventID    string
	Steps      int64
	RecordedAt time.Time
}

// ApplyStepSync adds the steps of event to progress and credits the resources they earn.
//
// Steps are always summed into the running totals. Resources are recomputed
// from the cumulative steps in the current mode so no partial steps are lost
// between syncs. Steps recorded before the last mode switch only count
// towards the lifetime total.
//
// Returns the resources actually added.
func ApplyStepSync(progress *Progress, event StepSyncEvent) (Resources, error) {
	if event.Steps < 0 {
		return Resources{}, fmt.Errorf("%w: %d", ErrInvalidStepCount, event.Steps)
	}
	if event.Steps > math.MaxInt64-progress.Steps.TotalSteps {
		return Resources{}, fmt.Errorf("%w: %d would overflow the lifetime total", ErrInvalidStepCount, event.Steps)
	}

	progress.Steps.TotalSteps += event.Steps

	if !progress.Steps.ModeSwitchedAt.IsZero() && event.RecordedAt.Before(progress.Steps.ModeSwitchedAt) {
		return Resources{}, nil
	}

	progress.Steps.StepsInCurrentMode += event.Steps

	return creditCurrentMode(progress)
}

func creditCurrentMode(progress *Progress) (Resources, error) {
	achievement := CalculateLifetimeBonuses(progress.Steps.TotalSteps)

	earned, err := ComputeResourceGain(progress.Steps.StepsInCurrentMode, progress.Steps.Mode, achievement)
	if err != nil {
		return Resources{}, err
	}

	earnedUnits := earned.Cells + earned.ExperiencePoints
	// Efficiency only grows with lifetime steps, so earnedUnits never drops below what was credited
	newUnits := earnedUnits - progress.Steps.CreditedInCurrentMode
	if newUnits <= 0 {
		return Resources{}, nil
	}
	progress.Steps.CreditedInCurrentMode = earnedUnits

	var gain Resources
	if progress.Steps.Mode == GameModeTraining {
		gain.ExperiencePoints = newUnits
	} else {
		gain.Cells = newUnits
	}

	before := progress.Resources
	progress.Resources = before.Add(gain, achievement.ExperienceBankCap)

	return Resources{
		Cells:            progress.Resources.Cells - before.Cells,
		ExperiencePoints: progress.Resources.ExperiencePoints - before.ExperiencePoints,
	}, nil
}
