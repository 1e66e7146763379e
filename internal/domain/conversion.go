package domain

import "fmt"

const discoveryStepsPerCell = 1000
const trainingStepsPerExperience = 10

func baseRate(mode GameMode) (int64, error) {
	switch mode {
	case GameModeDiscovery:
		return discoveryStepsPerCell, nil
	case GameModeTraining:
		return trainingStepsPerExperience, nil
	}
	return 0, fmt.Errorf("%w: '%s'", ErrInvalidGameMode, mode)
}

func efficiencyPct(mode GameMode, achievement LifetimeAchievement) int64 {
	var pct int
	switch mode {
	case GameModeDiscovery:
		pct = achievement.DiscoveryEfficiencyPct
	case GameModeTraining:
		pct = achievement.TrainingEfficiencyPct
	}
	return int64(max(0, min(MaxEfficiencyPct, pct)))
}

// EffectiveRate returns the number of steps needed for one unit of the mode's resource
//
// The base rate is reduced by the mode's efficiency bonus (capped at 50%),
// rounded down, and never drops below 1.
func EffectiveRate(mode GameMode, achievement LifetimeAchievement) (int64, error) {
	base, err := baseRate(mode)
	if err != nil {
		return 0, err
	}

	rate := base * (100 - efficiencyPct(mode, achievement)) / 100
	return max(1, rate), nil
}

// ComputeResourceGain converts steps into cells (discovery) or experience (training)
//
// Remainders are dropped. Callers that convert a running total should pass
// the cumulative steps and subtract what was already credited, see ApplyStepSync.
func ComputeResourceGain(stepsIncrement int64, mode GameMode, achievement LifetimeAchievement) (Resources, error) {
	if stepsIncrement < 0 {
		return Resources{}, fmt.Errorf("%w: %d", ErrInvalidStepCount, stepsIncrement)
	}

	rate, err := EffectiveRate(mode, achievement)
	if err != nil {
		return Resources{}, err
	}

	gained := stepsIncrement / rate
	if mode == GameModeTraining {
		return Resources{ExperiencePoints: gained}, nil
	}
	return Resources{Cells: gained}, nil
}

// ReleaseExperience applies the lifetime release bonus to the experience
// returned when a stepling is released
func ReleaseExperience(baseExperience int64, achievement LifetimeAchievement) int64 {
	if baseExperience <= 0 {
		return 0
	}
	return baseExperience * int64(100+max(0, achievement.ReleaseXPBonusPct)) / 100
}
