package domain

import (
	"fmt"
	"time"
)

// GameMode decides what walking is converted into
type GameMode string

const (
	GameModeDiscovery GameMode = "discovery"
	GameModeTraining  GameMode = "training"
)

func ParseGameMode(raw string) (GameMode, error) {
	switch GameMode(raw) {
	case GameModeDiscovery:
		return GameModeDiscovery, nil
	case GameModeTraining:
		return GameModeTraining, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrInvalidGameMode, raw)
}

// SwitchMode makes mode the active game mode.
//
// Steps walked in the previous mode that were not yet converted are dropped.
// Returns false if mode was already active.
func SwitchMode(progress *Progress, mode GameMode, now time.Time) (bool, error) {
	if _, err := ParseGameMode(string(mode)); err != nil {
		return false, err
	}

	if progress.Steps.Mode == mode {
		return false, nil
	}

	progress.Steps.Mode = mode
	progress.Steps.StepsInCurrentMode = 0
	progress.Steps.CreditedInCurrentMode = 0
	progress.Steps.ModeSwitchedAt = now

	return true, nil
}
