package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steplings/progression/internal/adapters/progressrepository"
	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/domaintest"
)

var now = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func nowFunc() time.Time {
	return now
}

// newRepoWithPlayer returns a repository holding a single player with the given lifetime steps in discovery mode
func newRepoWithPlayer(t *testing.T, totalSteps int64) (*progressrepository.Memory, string) {
	t.Helper()

	repo := progressrepository.NewMemory()
	playerUUID := domaintest.NewUUID(t)

	progress := domaintest.NewProgressBuilder(playerUUID, now.Add(-24*time.Hour)).
		WithTotalSteps(totalSteps).
		Build()
	_, err := repo.CreateProgress(t.Context(), progress)
	require.NoError(t, err)

	return repo, playerUUID
}

func mustGetProgress(t *testing.T, repo *progressrepository.Memory, playerUUID string) domain.Progress {
	t.Helper()

	progress, err := repo.GetProgress(t.Context(), playerUUID)
	require.NoError(t, err)
	return progress
}
