package app

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type appMetricsCollection struct {
	stepsSynced         metric.Int64Counter
	resourcesGranted    metric.Int64Counter
	milestonesClaimed   metric.Int64Counter
	dailyBonusesClaimed metric.Int64Counter
	modeSwitches        metric.Int64Counter
}

var metrics appMetricsCollection

func init() {
	const name = "steplings/app"
	meter := otel.Meter(name)

	stepsSynced, err := meter.Int64Counter(
		"app/steps_synced",
		metric.WithDescription("Steps added to lifetime totals"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create steps synced metric: %w", err))
	}

	resourcesGranted, err := meter.Int64Counter(
		"app/resources_granted",
		metric.WithDescription("Cells and experience granted, by resource"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create resources granted metric: %w", err))
	}

	milestonesClaimed, err := meter.Int64Counter(
		"app/milestones_claimed",
		metric.WithDescription("Milestone rewards claimed, by rarity"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create milestones claimed metric: %w", err))
	}

	dailyBonusesClaimed, err := meter.Int64Counter(
		"app/daily_bonuses_claimed",
		metric.WithDescription("Daily lifetime bonuses claimed"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create daily bonuses claimed metric: %w", err))
	}

	modeSwitches, err := meter.Int64Counter(
		"app/mode_switches",
		metric.WithDescription("Game mode switches, by new mode"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create mode switches metric: %w", err))
	}

	metrics = appMetricsCollection{
		stepsSynced:         stepsSynced,
		resourcesGranted:    resourcesGranted,
		milestonesClaimed:   milestonesClaimed,
		dailyBonusesClaimed: dailyBonusesClaimed,
		modeSwitches:        modeSwitches,
	}
}
