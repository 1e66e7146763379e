package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/steplings/progression/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "progression-table",
		Short:        "Print the walk-to-earn progression tables",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(bonusesCmd())
	rootCmd.AddCommand(milestonesCmd())
	rootCmd.AddCommand(gainCmd())
	rootCmd.AddCommand(releaseCmd())

	return rootCmd
}

func parseSteps(raw string) (int64, error) {
	steps, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid step count '%s': %w", raw, err)
	}
	if steps < 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidStepCount, steps)
	}
	return steps, nil
}

func formatBankCap(bankCap *int64) string {
	if bankCap == nil {
		return "unbounded"
	}
	return strconv.FormatInt(*bankCap, 10)
}

func bonusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bonuses <steps>...",
		Short: "Print the lifetime bonuses unlocked at each step total",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEPS\tDAILY CELLS\tDISCOVERY\tTRAINING\tCLICK\tXP BANK\tROSTER\tRELEASE XP\tINFINITE\tACHIEVEMENTS")

			for _, arg := range args {
				steps, err := parseSteps(arg)
				if err != nil {
					return err
				}

				a := domain.CalculateLifetimeBonuses(steps)
				fmt.Fprintf(
					w,
					"%d\t%d\t%d%%\t%d%%\tx%d\t%s\t%d\t+%d%%\t%d\t%s\n",
					steps,
					a.BonusCellsPerDay,
					a.DiscoveryEfficiencyPct,
					a.TrainingEfficiencyPct,
					a.ClickPowerMultiplier,
					formatBankCap(a.ExperienceBankCap),
					a.TrainingRosterSlots,
					a.ReleaseXPBonusPct,
					a.InfiniteMilestones,
					strings.Join(a.UnlockedAchievementIDs, ","),
				)
			}

			return w.Flush()
		},
	}
}

func milestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones",
		Short: "Print the milestone table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeMilestones(cmd.OutOrStdout())
		},
	}
}

func writeMilestones(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THRESHOLD\tRARITY\tNAME")
	for _, milestone := range domain.Milestones(nil) {
		fmt.Fprintf(w, "%d\t%s\t%s\n", milestone.ThresholdSteps, milestone.Rarity, milestone.Name)
	}
	return w.Flush()
}

func gainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gain <steps> <mode> <totalSteps>",
		Short: "Print the resources earned by walking steps in a mode at a lifetime step total",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(args[0])
			if err != nil {
				return err
			}
			mode, err := domain.ParseGameMode(args[1])
			if err != nil {
				return err
			}
			totalSteps, err := parseSteps(args[2])
			if err != nil {
				return err
			}

			achievement := domain.CalculateLifetimeBonuses(totalSteps)
			rate, err := domain.EffectiveRate(mode, achievement)
			if err != nil {
				return err
			}
			gain, err := domain.ComputeResourceGain(steps, mode, achievement)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rate: %d steps per unit\n", rate)
			fmt.Fprintf(out, "cells: %d\n", gain.Cells)
			fmt.Fprintf(out, "experience: %d\n", gain.ExperiencePoints)
			return nil
		},
	}
}

func releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <baseXP> <totalSteps>",
		Short: "Print the experience returned by releasing a stepling at a lifetime step total",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseExperience, err := strconv.ParseInt(strings.ReplaceAll(args[0], "_", ""), 10, 64)
			if err != nil || baseExperience < 0 {
				return fmt.Errorf("invalid base experience '%s'", args[0])
			}
			totalSteps, err := parseSteps(args[1])
			if err != nil {
				return err
			}

			achievement := domain.CalculateLifetimeBonuses(totalSteps)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bonus: +%d%%\n", achievement.ReleaseXPBonusPct)
			fmt.Fprintf(out, "experience: %d\n", domain.ReleaseExperience(baseExperience, achievement))
			return nil
		},
	}
}
