package progressrepository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/domaintest"
)

// Postgres stores microseconds
var createdAt = time.Date(2026, time.March, 14, 9, 26, 53, 589000000, time.UTC)

func syncEvent(eventID string, steps int64, recordedAt time.Time) domain.StepSyncEvent {
	return domain.StepSyncEvent{EventID: eventID, Steps: steps, RecordedAt: recordedAt}
}

func applyAt(event domain.StepSyncEvent, now time.Time) func(*domain.Progress) (domain.Resources, error) {
	return func(progress *domain.Progress) (domain.Resources, error) {
		granted, err := domain.ApplyStepSync(progress, event)
		if err != nil {
			return domain.Resources{}, err
		}
		progress.UpdatedAt = now
		return granted, nil
	}
}

func runProgressRepositoryTests(t *testing.T, newRepository func(t *testing.T) ProgressRepository) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		_, err := repo.GetProgress(ctx, playerUUID)
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)

		created, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)
		require.Equal(t, domain.NewProgress(playerUUID, createdAt), created)

		stored, err := repo.GetProgress(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, created, stored)
	})

	t.Run("creating twice returns the stored progress", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		_, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		_, _, err = repo.RecordStepSync(ctx, playerUUID, syncEvent("first", 2_500, createdAt), applyAt(syncEvent("first", 2_500, createdAt), createdAt.Add(time.Minute)))
		require.NoError(t, err)

		again, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt.Add(time.Hour)))
		require.NoError(t, err)
		require.Equal(t, int64(2_500), again.Steps.TotalSteps)
		require.Equal(t, createdAt, again.CreatedAt)
	})

	t.Run("create rejects unnormalized uuid", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)

		_, err := repo.CreateProgress(t.Context(), domain.NewProgress("A8B4D2C0E6F14A3B9C7D5E1F2A3B4C5D", createdAt))
		require.Error(t, err)
	})

	t.Run("update unknown player", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)

		_, err := repo.UpdateProgress(t.Context(), domaintest.NewUUID(t), func(*domain.Progress) error {
			t.Fatal("update should not be called")
			return nil
		})
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)

		_, _, err = repo.RecordStepSync(t.Context(), domaintest.NewUUID(t), syncEvent("e", 1, createdAt), func(*domain.Progress) (domain.Resources, error) {
			t.Fatal("apply should not be called")
			return domain.Resources{}, nil
		})
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("update persists claims and inventory", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)
		claimedAt := createdAt.Add(48 * time.Hour)

		_, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		event := syncEvent("walk", 120_000, createdAt.Add(time.Hour))
		_, granted, err := repo.RecordStepSync(ctx, playerUUID, event, applyAt(event, createdAt.Add(time.Hour)))
		require.NoError(t, err)
		// 100k lifetime steps unlock 2% discovery efficiency: 980 steps per cell
		require.Equal(t, domain.Resources{Cells: 122}, granted)

		updated, err := repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
			if _, err := domain.ClaimMilestoneReward(progress, 10_000, claimedAt); err != nil {
				return err
			}
			if _, err := domain.ClaimMilestoneReward(progress, 100_000, claimedAt); err != nil {
				return err
			}
			if _, err := domain.ClaimDailyBonus(progress, claimedAt); err != nil {
				return err
			}
			_, err := domain.SwitchMode(progress, domain.GameModeTraining, claimedAt)
			progress.UpdatedAt = claimedAt
			return err
		})
		require.NoError(t, err)

		expected := domaintest.NewProgressBuilder(playerUUID, createdAt).
			WithTotalSteps(120_000).
			WithMode(domain.GameModeTraining).
			WithResources(122+1, 0).
			WithClaimedMilestone(10_000, claimedAt).
			WithClaimedMilestone(100_000, claimedAt).
			Build()
		expected.Steps.ModeSwitchedAt = claimedAt
		expected.LastDailyBonusClaimAt = &claimedAt
		expected.UpdatedAt = claimedAt
		require.Equal(t, expected, updated)

		stored, err := repo.GetProgress(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, expected, stored)
	})

	t.Run("failed update is not persisted", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		created, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		_, err = repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
			progress.Resources.Cells = 1_000
			_, err := domain.ClaimMilestoneReward(progress, 10_000, createdAt)
			return err
		})
		require.ErrorIs(t, err, domain.ErrNotYetReached)

		stored, err := repo.GetProgress(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, created, stored)
	})

	t.Run("duplicate step sync events are applied once", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		_, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		event := syncEvent("retry-me", 1_500, createdAt.Add(time.Minute))
		_, granted, err := repo.RecordStepSync(ctx, playerUUID, event, applyAt(event, createdAt.Add(time.Minute)))
		require.NoError(t, err)
		require.Equal(t, domain.Resources{Cells: 1}, granted)

		progress, granted, err := repo.RecordStepSync(ctx, playerUUID, event, func(*domain.Progress) (domain.Resources, error) {
			t.Fatal("apply should not be called for a duplicate event")
			return domain.Resources{}, nil
		})
		require.ErrorIs(t, err, domain.ErrDuplicateSyncEvent)
		require.Equal(t, domain.Resources{}, granted)
		require.Equal(t, int64(1_500), progress.Steps.TotalSteps)

		// The same event id for another player is a different event
		otherUUID := domaintest.NewUUID(t)
		_, err = repo.CreateProgress(ctx, domain.NewProgress(otherUUID, createdAt))
		require.NoError(t, err)
		_, _, err = repo.RecordStepSync(ctx, otherUUID, event, applyAt(event, createdAt.Add(time.Minute)))
		require.NoError(t, err)
	})

	t.Run("failed step sync can be retried", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		_, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		failing := errors.New("apply failed")
		event := syncEvent("flaky", 1_000, createdAt)
		_, _, err = repo.RecordStepSync(ctx, playerUUID, event, func(*domain.Progress) (domain.Resources, error) {
			return domain.Resources{}, failing
		})
		require.ErrorIs(t, err, failing)

		_, granted, err := repo.RecordStepSync(ctx, playerUUID, event, applyAt(event, createdAt))
		require.NoError(t, err)
		require.Equal(t, domain.Resources{Cells: 1}, granted)
	})

	t.Run("concurrent step syncs are summed", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		_, err := repo.CreateProgress(ctx, domain.NewProgress(playerUUID, createdAt))
		require.NoError(t, err)

		const syncs = 20
		var wg sync.WaitGroup
		for i := range syncs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				event := syncEvent(string(rune('a'+i)), 250, createdAt)
				_, _, err := repo.RecordStepSync(ctx, playerUUID, event, applyAt(event, createdAt))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.GetProgress(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, int64(syncs*250), stored.Steps.TotalSteps)
		require.Equal(t, int64(syncs*250), stored.Steps.StepsInCurrentMode)
		require.Equal(t, int64(5), stored.Resources.Cells)
		require.Equal(t, int64(5), stored.Steps.CreditedInCurrentMode)
	})

	t.Run("concurrent claims grant one reward", func(t *testing.T) {
		t.Parallel()
		repo := newRepository(t)
		ctx := t.Context()
		playerUUID := domaintest.NewUUID(t)

		progress := domaintest.NewProgressBuilder(playerUUID, createdAt).WithTotalSteps(12_000).Build()
		_, err := repo.CreateProgress(ctx, progress)
		require.NoError(t, err)

		const claims = 50
		errs := make([]error, claims)
		var wg sync.WaitGroup
		for i := range claims {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.UpdateProgress(ctx, playerUUID, func(progress *domain.Progress) error {
					_, err := domain.ClaimMilestoneReward(progress, 10_000, createdAt.Add(time.Minute))
					return err
				})
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

		stored, err := repo.GetProgress(ctx, playerUUID)
		require.NoError(t, err)
		require.Len(t, stored.Inventory, 1)
		require.Equal(t, int64(10_000), stored.Inventory[0].MilestoneThreshold)
		require.Len(t, stored.ClaimedMilestones, 1)
	})
}
