package domain

import "errors"

var (
	ErrInvalidStepCount         = errors.New("invalid step count")
	ErrInvalidGameMode          = errors.New("invalid game mode")
	ErrNotYetReached            = errors.New("milestone not yet reached")
	ErrAlreadyClaimed           = errors.New("milestone reward already claimed")
	ErrUnknownMilestone         = errors.New("unknown milestone")
	ErrNoDailyBonus             = errors.New("no daily bonus unlocked")
	ErrDailyBonusAlreadyClaimed = errors.New("daily bonus already claimed today")
	ErrPlayerNotFound           = errors.New("player not found")
	ErrDuplicateSyncEvent       = errors.New("step sync event already applied")
	ErrMissingEventID           = errors.New("step sync event id is missing")
)
