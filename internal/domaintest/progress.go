package domaintest

import (
	"time"

	"github.com/steplings/progression/internal/domain"
)

type progressBuilder struct {
	progress domain.Progress
}

// WithTotalSteps sets the lifetime step count without crediting any resources
func (pb *progressBuilder) WithTotalSteps(totalSteps int64) *progressBuilder {
	pb.progress.Steps.TotalSteps = totalSteps
	return pb
}

func (pb *progressBuilder) WithMode(mode domain.GameMode) *progressBuilder {
	pb.progress.Steps.Mode = mode
	return pb
}

func (pb *progressBuilder) WithStepsInCurrentMode(steps, credited int64) *progressBuilder {
	pb.progress.Steps.StepsInCurrentMode = steps
	pb.progress.Steps.CreditedInCurrentMode = credited
	return pb
}

func (pb *progressBuilder) WithResources(cells, experience int64) *progressBuilder {
	pb.progress.Resources = domain.Resources{Cells: cells, ExperiencePoints: experience}
	return pb
}

func (pb *progressBuilder) WithClaimedMilestone(thresholdSteps int64, claimedAt time.Time) *progressBuilder {
	milestone, ok := domain.FindMilestone(thresholdSteps)
	if !ok {
		panic("unknown milestone in test builder")
	}
	pb.progress.ClaimedMilestones[thresholdSteps] = claimedAt
	pb.progress.Inventory = append(pb.progress.Inventory, domain.RewardItem{
		Kind:               domain.ItemMagnifyingGlass,
		Rarity:             milestone.Rarity,
		MilestoneThreshold: thresholdSteps,
		GrantedAt:          claimedAt,
	})
	return pb
}

func (pb *progressBuilder) Build() domain.Progress {
	// Copy, so further mutations to the builder don't affect the returned progress
	return pb.progress.Clone()
}

func (pb *progressBuilder) BuildPtr() *domain.Progress {
	progress := pb.Build()
	return &progress
}

func NewProgressBuilder(playerUUID string, createdAt time.Time) *progressBuilder {
	return &progressBuilder{
		progress: domain.NewProgress(playerUUID, createdAt),
	}
}
