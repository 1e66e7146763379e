package domain

import (
	"maps"
	"slices"
	"time"
)

// Progress is the stored progression state of one player
type Progress struct {
	PlayerUUID string

	Steps     StepTotals
	Resources Resources

	ClaimedMilestones map[int64]time.Time
	Inventory         []RewardItem

	LastDailyBonusClaimAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgress returns the state of a freshly signed up player
func NewProgress(playerUUID string, now time.Time) Progress {
	return Progress{
		PlayerUUID: playerUUID,
		Steps: StepTotals{
			Mode: GameModeDiscovery,
		},
		ClaimedMilestones: make(map[int64]time.Time),
		Inventory:         []RewardItem{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// LifetimeAchievement derives the player's lifetime bonuses from their step total
func (p *Progress) LifetimeAchievement() LifetimeAchievement {
	achievement := CalculateLifetimeBonuses(p.Steps.TotalSteps)
	if p.LastDailyBonusClaimAt != nil {
		lastClaim := *p.LastDailyBonusClaimAt
		achievement.LastDailyBonusClaimAt = &lastClaim
	}
	return achievement
}

// Clone returns a deep copy so callers can mutate it without affecting stored state
func (p Progress) Clone() Progress {
	clone := p
	clone.ClaimedMilestones = maps.Clone(p.ClaimedMilestones)
	if clone.ClaimedMilestones == nil {
		clone.ClaimedMilestones = make(map[int64]time.Time)
	}
	clone.Inventory = slices.Clone(p.Inventory)
	if clone.Inventory == nil {
		clone.Inventory = []RewardItem{}
	}
	if p.LastDailyBonusClaimAt != nil {
		lastClaim := *p.LastDailyBonusClaimAt
		clone.LastDailyBonusClaimAt = &lastClaim
	}
	return clone
}
