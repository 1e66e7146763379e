package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steplings/progression/internal/domain"
)

func TestBuildClaimMilestoneReward(t *testing.T) {
	t.Parallel()

	t.Run("claim reached milestone", func(t *testing.T) {
		t.Parallel()

		repo, playerUUID := newRepoWithPlayer(t, 1_000_000)
		claim := BuildClaimMilestoneReward(repo, nowFunc)

		item, progress, err := claim(t.Context(), playerUUID, 1_000_000)
		require.NoError(t, err)
		require.Equal(t, domain.RewardItem{
			Kind:               domain.ItemMagnifyingGlass,
			Rarity:             domain.RarityEpic,
			MilestoneThreshold: 1_000_000,
			GrantedAt:          now,
		}, item)
		require.Equal(t, []domain.RewardItem{item}, progress.Inventory)
		require.Equal(t, now, progress.ClaimedMilestones[1_000_000])

		stored := mustGetProgress(t, repo, playerUUID)
		require.Equal(t, []domain.RewardItem{item}, stored.Inventory)
	})

	t.Run("second claim fails and grants nothing", func(t *testing.T) {
		t.Parallel()

		repo, playerUUID := newRepoWithPlayer(t, 10_000)
		claim := BuildClaimMilestoneReward(repo, nowFunc)

		_, _, err := claim(t.Context(), playerUUID, 10_000)
		require.NoError(t, err)

		_, _, err = claim(t.Context(), playerUUID, 10_000)
		require.ErrorIs(t, err, domain.ErrAlreadyClaimed)

		require.Len(t, mustGetProgress(t, repo, playerUUID).Inventory, 1)
	})

	t.Run("concurrent retries grant one reward", func(t *testing.T) {
		t.Parallel()

		repo, playerUUID := newRepoWithPlayer(t, 3_500_000)
		claim := BuildClaimMilestoneReward(repo, nowFunc)

		const retries = 50
		errs := make([]error, retries)
		var wg sync.WaitGroup
		for i := range retries {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, errs[i] = claim(t.Context(), playerUUID, 3_500_000)
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		}
		require.Equal(t, 1, succeeded)

		stored := mustGetProgress(t, repo, playerUUID)
		require.Len(t, stored.Inventory, 1)
		require.Equal(t, domain.RarityLegendary, stored.Inventory[0].Rarity)
	})

	t.Run("not yet reached", func(t *testing.T) {
		t.Parallel()

		repo, playerUUID := newRepoWithPlayer(t, 9_999)

		_, _, err := BuildClaimMilestoneReward(repo, nowFunc)(t.Context(), playerUUID, 10_000)
		require.ErrorIs(t, err, domain.ErrNotYetReached)
		require.Empty(t, mustGetProgress(t, repo, playerUUID).Inventory)
	})

	t.Run("unknown milestone", func(t *testing.T) {
		t.Parallel()

		repo, playerUUID := newRepoWithPlayer(t, 50_000)

		_, _, err := BuildClaimMilestoneReward(repo, nowFunc)(t.Context(), playerUUID, 50_000)
		require.ErrorIs(t, err, domain.ErrUnknownMilestone)
	})
}
