package domain

import (
	"fmt"
	"time"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Milestone is a lifetime step count that rewards a magnifying glass when crossed
type Milestone struct {
	ThresholdSteps int64
	Rarity         Rarity
	Name           string
	RewardClaimed  bool
}

type ItemKind string

const ItemMagnifyingGlass ItemKind = "magnifying_glass"

// RewardItem is a collectible granted for claiming a milestone
type RewardItem struct {
	Kind               ItemKind
	Rarity             Rarity
	MilestoneThreshold int64
	GrantedAt          time.Time
}

// Ordered by ascending threshold
func milestoneTable() []Milestone {
	return []Milestone{
		{ThresholdSteps: 10_000, Rarity: RarityCommon, Name: "First Stroll"},
		{ThresholdSteps: 100_000, Rarity: RarityUncommon, Name: "Trailblazer"},
		{ThresholdSteps: 500_000, Rarity: RarityRare, Name: "Pathfinder"},
		{ThresholdSteps: 1_000_000, Rarity: RarityEpic, Name: "Million Step Club"},
		{ThresholdSteps: 3_500_000, Rarity: RarityLegendary, Name: "Legend of the Road"},
	}
}

// Milestones returns the milestone table with RewardClaimed set from the given claims
func Milestones(claimed map[int64]time.Time) []Milestone {
	milestones := milestoneTable()
	for i := range milestones {
		_, milestones[i].RewardClaimed = claimed[milestones[i].ThresholdSteps]
	}
	return milestones
}

func FindMilestone(thresholdSteps int64) (Milestone, bool) {
	for _, milestone := range milestoneTable() {
		if milestone.ThresholdSteps == thresholdSteps {
			return milestone, true
		}
	}
	return Milestone{}, false
}

// NextMilestone returns the first milestone with a threshold above totalSteps.
//
// Returns false once every milestone has been passed.
func NextMilestone(totalSteps int64) (Milestone, bool) {
	for _, milestone := range milestoneTable() {
		if milestone.ThresholdSteps > totalSteps {
			return milestone, true
		}
	}
	return Milestone{}, false
}

// MilestoneProgress returns the rounded percentage [0, 100] of the way to the next milestone
func MilestoneProgress(totalSteps int64) int {
	next, ok := NextMilestone(totalSteps)
	if !ok {
		return 100
	}
	return ProgressToward(totalSteps, next.ThresholdSteps)
}

// ProgressToward returns the rounded percentage [0, 100] of thresholdSteps reached.
//
// Rounds half up, but only reports 100 once the threshold is actually reached.
func ProgressToward(totalSteps int64, thresholdSteps int64) int {
	if totalSteps >= thresholdSteps || thresholdSteps <= 0 {
		return 100
	}
	if totalSteps <= 0 {
		return 0
	}

	// round(100 * steps / threshold) without floating point
	pct := (200*totalSteps + thresholdSteps) / (2 * thresholdSteps)
	return int(min(99, pct))
}

// ClaimMilestoneReward marks the milestone as claimed and grants its magnifying glass
//
// Claiming is idempotent: a second claim fails with ErrAlreadyClaimed and
// leaves the inventory untouched.
func ClaimMilestoneReward(progress *Progress, thresholdSteps int64, now time.Time) (RewardItem, error) {
	milestone, ok := FindMilestone(thresholdSteps)
	if !ok {
		return RewardItem{}, fmt.Errorf("%w: %d", ErrUnknownMilestone, thresholdSteps)
	}

	if _, claimed := progress.ClaimedMilestones[thresholdSteps]; claimed {
		return RewardItem{}, fmt.Errorf("%w: %d", ErrAlreadyClaimed, thresholdSteps)
	}

	if progress.Steps.TotalSteps < thresholdSteps {
		return RewardItem{}, fmt.Errorf("%w: %d/%d steps", ErrNotYetReached, progress.Steps.TotalSteps, thresholdSteps)
	}

	item := RewardItem{
		Kind:               ItemMagnifyingGlass,
		Rarity:             milestone.Rarity,
		MilestoneThreshold: thresholdSteps,
		GrantedAt:          now,
	}

	if progress.ClaimedMilestones == nil {
		progress.ClaimedMilestones = make(map[int64]time.Time)
	}
	progress.ClaimedMilestones[thresholdSteps] = now
	progress.Inventory = append(progress.Inventory, item)

	return item, nil
}
