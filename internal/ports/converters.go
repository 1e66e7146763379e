package ports

import (
	"time"

	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/domain"
)

type stepsPayload struct {
	Total          int64      `json:"total"`
	Mode           string     `json:"mode"`
	InCurrentMode  int64      `json:"in_current_mode"`
	ModeSwitchedAt *time.Time `json:"mode_switched_at"`
}

type resourcesPayload struct {
	Cells      int64 `json:"cells"`
	Experience int64 `json:"experience"`
}

type lifetimePayload struct {
	BonusCellsPerDay       int        `json:"bonus_cells_per_day"`
	DiscoveryEfficiencyPct int        `json:"discovery_efficiency_pct"`
	TrainingEfficiencyPct  int        `json:"training_efficiency_pct"`
	ClickPowerMultiplier   int        `json:"click_power_multiplier"`
	ExperienceBankCap      *int64     `json:"experience_bank_cap"`
	TrainingRosterSlots    int        `json:"training_roster_slots"`
	ReleaseXPBonusPct      int        `json:"release_xp_bonus_pct"`
	InfiniteMilestones     int64      `json:"infinite_milestones"`
	UnlockedAchievements   []string   `json:"unlocked_achievements"`
	LastDailyBonusClaimAt  *time.Time `json:"last_daily_bonus_claim_at"`
}

type milestonePayload struct {
	ThresholdSteps int64  `json:"threshold_steps"`
	Rarity         string `json:"rarity"`
	Name           string `json:"name"`
	RewardClaimed  *bool  `json:"reward_claimed,omitempty"`
}

type rewardItemPayload struct {
	Kind               string    `json:"kind"`
	Rarity             string    `json:"rarity"`
	MilestoneThreshold int64     `json:"milestone_threshold"`
	GrantedAt          time.Time `json:"granted_at"`
}

type ratesPayload struct {
	DiscoveryStepsPerCell      int64 `json:"discovery_steps_per_cell"`
	TrainingStepsPerExperience int64 `json:"training_steps_per_experience"`
}

type progressionPayload struct {
	Steps     stepsPayload        `json:"steps"`
	Resources resourcesPayload    `json:"resources"`
	Inventory []rewardItemPayload `json:"inventory"`

	Lifetime                     lifetimePayload    `json:"lifetime"`
	NextMilestone                *milestonePayload  `json:"next_milestone"`
	MilestoneProgressPct         int                `json:"milestone_progress_pct"`
	Milestones                   []milestonePayload `json:"milestones"`
	StepsToNextInfiniteMilestone int64              `json:"steps_to_next_infinite_milestone"`
	Rates                        ratesPayload       `json:"rates"`
	DailyBonusAvailable          bool               `json:"daily_bonus_available"`
}

func stepsToPayload(steps domain.StepTotals) stepsPayload {
	payload := stepsPayload{
		Total:         steps.TotalSteps,
		Mode:          string(steps.Mode),
		InCurrentMode: steps.StepsInCurrentMode,
	}
	if !steps.ModeSwitchedAt.IsZero() {
		switchedAt := steps.ModeSwitchedAt
		payload.ModeSwitchedAt = &switchedAt
	}
	return payload
}

func resourcesToPayload(resources domain.Resources) resourcesPayload {
	return resourcesPayload{
		Cells:      resources.Cells,
		Experience: resources.ExperiencePoints,
	}
}

func lifetimeToPayload(achievement domain.LifetimeAchievement) lifetimePayload {
	unlocked := achievement.UnlockedAchievementIDs
	if unlocked == nil {
		unlocked = []string{}
	}
	return lifetimePayload{
		BonusCellsPerDay:       achievement.BonusCellsPerDay,
		DiscoveryEfficiencyPct: achievement.DiscoveryEfficiencyPct,
		TrainingEfficiencyPct:  achievement.TrainingEfficiencyPct,
		ClickPowerMultiplier:   achievement.ClickPowerMultiplier,
		ExperienceBankCap:      achievement.ExperienceBankCap,
		TrainingRosterSlots:    achievement.TrainingRosterSlots,
		ReleaseXPBonusPct:      achievement.ReleaseXPBonusPct,
		InfiniteMilestones:     achievement.InfiniteMilestones,
		UnlockedAchievements:   unlocked,
		LastDailyBonusClaimAt:  achievement.LastDailyBonusClaimAt,
	}
}

// Claim state is only included for milestones of a specific player
func milestoneToPayload(milestone domain.Milestone, withClaimState bool) milestonePayload {
	payload := milestonePayload{
		ThresholdSteps: milestone.ThresholdSteps,
		Rarity:         string(milestone.Rarity),
		Name:           milestone.Name,
	}
	if withClaimState {
		claimed := milestone.RewardClaimed
		payload.RewardClaimed = &claimed
	}
	return payload
}

func milestonesToPayload(milestones []domain.Milestone, withClaimState bool) []milestonePayload {
	payloads := make([]milestonePayload, 0, len(milestones))
	for _, milestone := range milestones {
		payloads = append(payloads, milestoneToPayload(milestone, withClaimState))
	}
	return payloads
}

func rewardItemToPayload(item domain.RewardItem) rewardItemPayload {
	return rewardItemPayload{
		Kind:               string(item.Kind),
		Rarity:             string(item.Rarity),
		MilestoneThreshold: item.MilestoneThreshold,
		GrantedAt:          item.GrantedAt,
	}
}

func inventoryToPayload(inventory []domain.RewardItem) []rewardItemPayload {
	payloads := make([]rewardItemPayload, 0, len(inventory))
	for _, item := range inventory {
		payloads = append(payloads, rewardItemToPayload(item))
	}
	return payloads
}

func progressionToPayload(view app.ProgressionView) progressionPayload {
	payload := progressionPayload{
		Steps:                        stepsToPayload(view.Progress.Steps),
		Resources:                    resourcesToPayload(view.Progress.Resources),
		Inventory:                    inventoryToPayload(view.Progress.Inventory),
		Lifetime:                     lifetimeToPayload(view.Achievement),
		MilestoneProgressPct:         view.MilestoneProgressPct,
		Milestones:                   milestonesToPayload(view.Milestones, true),
		StepsToNextInfiniteMilestone: view.StepsToNextInfiniteMilestone,
		Rates: ratesPayload{
			DiscoveryStepsPerCell:      view.DiscoveryStepsPerCell,
			TrainingStepsPerExperience: view.TrainingStepsPerExperience,
		},
		DailyBonusAvailable: view.DailyBonusAvailable,
	}
	if view.NextMilestone != nil {
		next := milestoneToPayload(*view.NextMilestone, false)
		payload.NextMilestone = &next
	}
	return payload
}
