package domain

import (
	"fmt"
	"time"
)

// ClaimDailyBonus grants the lifetime bonus cells once per UTC calendar day
//
// Returns the number of cells granted.
func ClaimDailyBonus(progress *Progress, now time.Time) (int64, error) {
	achievement := CalculateLifetimeBonuses(progress.Steps.TotalSteps)
	if achievement.BonusCellsPerDay <= 0 {
		return 0, ErrNoDailyBonus
	}

	if progress.LastDailyBonusClaimAt != nil && sameUTCDay(*progress.LastDailyBonusClaimAt, now) {
		return 0, fmt.Errorf("%w: last claimed at %s", ErrDailyBonusAlreadyClaimed, progress.LastDailyBonusClaimAt.UTC().Format(time.RFC3339))
	}

	bonus := int64(achievement.BonusCellsPerDay)
	progress.Resources = progress.Resources.Add(Resources{Cells: bonus}, nil)
	claimedAt := now
	progress.LastDailyBonusClaimAt = &claimedAt

	return bonus, nil
}

func sameUTCDay(a, b time.Time) bool {
	aYear, aMonth, aDay := a.UTC().Date()
	bYear, bMonth, bDay := b.UTC().Date()
	return aYear == bYear && aMonth == bMonth && aDay == bDay
}
