package progressrepository

import (
	"context"
	"fmt"
	"sync"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/strutils"
)

type memoryEntry struct {
	mu sync.Mutex

	progress domain.Progress
	events   map[string]domain.Resources
}

// Memory keeps progression in process. Used for local development and tests.
type Memory struct {
	mu      sync.Mutex
	players map[string]*memoryEntry
}

func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]*memoryEntry),
	}
}

func (m *Memory) entry(playerUUID string) (*memoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.players[playerUUID]
	return entry, ok
}

func (m *Memory) CreateProgress(ctx context.Context, progress domain.Progress) (domain.Progress, error) {
	if !strutils.UUIDIsNormalized(progress.PlayerUUID) {
		return domain.Progress{}, fmt.Errorf("uuid is not normalized")
	}

	m.mu.Lock()
	entry, ok := m.players[progress.PlayerUUID]
	if !ok {
		entry = &memoryEntry{
			progress: progress.Clone(),
			events:   make(map[string]domain.Resources),
		}
		m.players[progress.PlayerUUID] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.progress.Clone(), nil
}

func (m *Memory) GetProgress(ctx context.Context, playerUUID string) (domain.Progress, error) {
	entry, ok := m.entry(playerUUID)
	if !ok {
		return domain.Progress{}, domain.ErrPlayerNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.progress.Clone(), nil
}

func (m *Memory) UpdateProgress(ctx context.Context, playerUUID string, update func(*domain.Progress) error) (domain.Progress, error) {
	entry, ok := m.entry(playerUUID)
	if !ok {
		return domain.Progress{}, domain.ErrPlayerNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Progress{}, err
	}

	working := entry.progress.Clone()
	if err := update(&working); err != nil {
		return domain.Progress{}, err
	}
	entry.progress = working

	return working.Clone(), nil
}

func (m *Memory) RecordStepSync(
	ctx context.Context,
	playerUUID string,
	event domain.StepSyncEvent,
	apply func(*domain.Progress) (domain.Resources, error),
) (domain.Progress, domain.Resources, error) {
	entry, ok := m.entry(playerUUID)
	if !ok {
		return domain.Progress{}, domain.Resources{}, domain.ErrPlayerNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}

	if _, seen := entry.events[event.EventID]; seen {
		return entry.progress.Clone(), domain.Resources{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSyncEvent, event.EventID)
	}

	working := entry.progress.Clone()
	granted, err := apply(&working)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}
	entry.progress = working
	entry.events[event.EventID] = granted

	return working.Clone(), granted, nil
}
