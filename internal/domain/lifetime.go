package domain

import (
	"fmt"
	"time"
)

// Above this many lifetime steps the named tiers are exhausted and bonuses
// keep growing through infinite progression instead
const infiniteProgressionStart = 3_500_000
const infiniteProgressionInterval = 600_000

const maxExtraBonusCells = 10
const extraEfficiencyPerMilestone = 2
const maxExtraEfficiencyPct = 30

const MaxBonusCellsPerDay = 15
const MaxEfficiencyPct = 50

// LifetimeAchievement is the set of permanent bonuses a player has earned by walking.
//
// Every field except LastDailyBonusClaimAt is derived from the lifetime step
// count alone. Stored copies are caches.
type LifetimeAchievement struct {
	BonusCellsPerDay       int
	DiscoveryEfficiencyPct int
	TrainingEfficiencyPct  int
	ClickPowerMultiplier   int
	ExperienceBankCap      *int64 // nil means unbounded
	TrainingRosterSlots    int
	ReleaseXPBonusPct      int

	// Number of completed infinite progression intervals past the last named tier
	InfiniteMilestones     int64
	UnlockedAchievementIDs []string

	LastDailyBonusClaimAt *time.Time
}

type lifetimeTier struct {
	achievementID          string
	minSteps               int64
	bonusCellsPerDay       int
	discoveryEfficiencyPct int
	trainingEfficiencyPct  int
	clickPowerMultiplier   int
	experienceBankCap      int64 // unboundedExperienceBank for no cap
	trainingRosterSlots    int
	releaseXPBonusPct      int
}

const unboundedExperienceBank = -1

// Ordered by ascending minSteps. Each tier replaces the bundle of the previous one.
func lifetimeTiers() []lifetimeTier {
	return []lifetimeTier{
		{
			achievementID:        "",
			minSteps:             0,
			clickPowerMultiplier: 1,
			experienceBankCap:    100,
			trainingRosterSlots:  10,
		},
		{
			achievementID:        "lifetime_10k",
			minSteps:             10_000,
			clickPowerMultiplier: 1,
			experienceBankCap:    150,
			trainingRosterSlots:  10,
		},
		{
			achievementID:          "lifetime_100k",
			minSteps:               100_000,
			bonusCellsPerDay:       1,
			discoveryEfficiencyPct: 2,
			clickPowerMultiplier:   1,
			experienceBankCap:      300,
			trainingRosterSlots:    10,
		},
		{
			achievementID:          "lifetime_3500k",
			minSteps:               infiniteProgressionStart,
			bonusCellsPerDay:       5,
			discoveryEfficiencyPct: 20,
			trainingEfficiencyPct:  20,
			clickPowerMultiplier:   7,
			experienceBankCap:      unboundedExperienceBank,
			trainingRosterSlots:    16,
			releaseXPBonusPct:      50,
		},
	}
}

// CalculateLifetimeBonuses derives the lifetime achievement reached at totalSteps
//
// The result is monotonically non-decreasing in totalSteps. Negative step
// counts are treated as zero.
func CalculateLifetimeBonuses(totalSteps int64) LifetimeAchievement {
	if totalSteps < 0 {
		totalSteps = 0
	}

	tiers := lifetimeTiers()

	current := tiers[0]
	unlocked := []string{}
	for i := len(tiers) - 1; i >= 0; i-- {
		if totalSteps >= tiers[i].minSteps {
			current = tiers[i]
			for _, reached := range tiers[:i+1] {
				if reached.achievementID != "" {
					unlocked = append(unlocked, reached.achievementID)
				}
			}
			break
		}
	}

	achievement := LifetimeAchievement{
		BonusCellsPerDay:       current.bonusCellsPerDay,
		DiscoveryEfficiencyPct: current.discoveryEfficiencyPct,
		TrainingEfficiencyPct:  current.trainingEfficiencyPct,
		ClickPowerMultiplier:   current.clickPowerMultiplier,
		TrainingRosterSlots:    current.trainingRosterSlots,
		ReleaseXPBonusPct:      current.releaseXPBonusPct,
		UnlockedAchievementIDs: unlocked,
	}
	if current.experienceBankCap != unboundedExperienceBank {
		bankCap := current.experienceBankCap
		achievement.ExperienceBankCap = &bankCap
	}

	milestoneCount := infiniteMilestoneCount(totalSteps)
	if milestoneCount > 0 {
		extraCells := int(min(maxExtraBonusCells, milestoneCount))
		extraEfficiency := int(min(maxExtraEfficiencyPct, milestoneCount*extraEfficiencyPerMilestone))

		achievement.InfiniteMilestones = milestoneCount
		achievement.BonusCellsPerDay = min(MaxBonusCellsPerDay, achievement.BonusCellsPerDay+extraCells)
		achievement.DiscoveryEfficiencyPct = min(MaxEfficiencyPct, achievement.DiscoveryEfficiencyPct+extraEfficiency)
		achievement.TrainingEfficiencyPct = min(MaxEfficiencyPct, achievement.TrainingEfficiencyPct+extraEfficiency)
		achievement.UnlockedAchievementIDs = append(
			achievement.UnlockedAchievementIDs,
			fmt.Sprintf("endless_walker_%d", milestoneCount),
		)
	}

	return achievement
}

func infiniteMilestoneCount(totalSteps int64) int64 {
	stepsAbove := max(0, totalSteps-infiniteProgressionStart)
	return stepsAbove / infiniteProgressionInterval
}

// StepsToNextInfiniteMilestone returns how many steps remain until the next
// infinite progression interval completes, or 0 before infinite progression starts
func StepsToNextInfiniteMilestone(totalSteps int64) int64 {
	if totalSteps < infiniteProgressionStart {
		return 0
	}
	stepsAbove := totalSteps - infiniteProgressionStart
	return infiniteProgressionInterval - stepsAbove%infiniteProgressionInterval
}
