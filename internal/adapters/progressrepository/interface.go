package progressrepository

import (
	"context"

	"github.com/steplings/progression/internal/domain"
)

// ProgressRepository stores player progression.
//
// UpdateProgress and RecordStepSync run their callback while holding an
// exclusive lock on the player, so concurrent updates of one player are
// applied one at a time and never overwrite each other.
type ProgressRepository interface {
	// CreateProgress stores a new player. If the player already exists the stored progress is returned.
	CreateProgress(ctx context.Context, progress domain.Progress) (domain.Progress, error)

	GetProgress(ctx context.Context, playerUUID string) (domain.Progress, error)

	// UpdateProgress persists the changes update makes to the player's progress.
	// Nothing is persisted if update returns an error.
	UpdateProgress(ctx context.Context, playerUUID string, update func(*domain.Progress) error) (domain.Progress, error)

	// RecordStepSync applies a step sync at most once per event ID.
	// Returns domain.ErrDuplicateSyncEvent without calling apply if the event is already recorded.
	RecordStepSync(
		ctx context.Context,
		playerUUID string,
		event domain.StepSyncEvent,
		apply func(*domain.Progress) (domain.Resources, error),
	) (domain.Progress, domain.Resources, error)
}
