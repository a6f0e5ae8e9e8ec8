// Package cmd holds the subcommands registered on the lightnode root command.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/animation"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/rig"
)

// CreateValidateCmd creates the validate command.
func CreateValidateCmd() *cobra.Command {
	var rigFile string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rig file and its animation catalog",
		Long: `Loads the rig file over the defaults, checks every value, and for tree rigs builds ` +
			`the chosen animations from the catalog on an in-memory strip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return validateRig(cmd.OutOrStdout(), rigFile, quiet)
		},
	}

	cmd.Flags().StringVarP(&rigFile, "rig", "r", "rig.toml", "Rig settings file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors")
	return cmd
}

func validateRig(out io.Writer, path string, quiet bool) error {
	cfg, err := config.LoadRig(path)
	if err != nil {
		return err
	}
	if quiet {
		out = io.Discard
	}
	fmt.Fprintf(out, "%s: %s rig, %d pixels on %s\n", path, cfg.Kind, cfg.Pixels.Count, cfg.Pixels.Driver)

	if cfg.Kind == config.KindStar {
		sched := rig.StarSchedule(cfg.Star)
		fmt.Fprintf(out, "  lights on at or below %d, off after %s, midday sleep %s, night sleep %s\n",
			sched.Threshold, sched.StopAfter, sched.MiddaySleep, sched.NightSleep)
		return nil
	}

	sched, err := rig.TreeSchedule(cfg.Tree)
	if err != nil {
		return err
	}
	catalog, err := animation.CatalogFor(cfg.Tree.Catalog)
	if err != nil {
		return err
	}
	strip := pixels.NewMemory(cfg.Pixels.Count, slog.New(slog.NewTextHandler(io.Discard, nil)))
	built, err := animation.Build(strip, catalog, cfg.Tree.Animations, cfg.Tree.Overrides, cfg.Tree.Color)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  on %s before sunset, stop time %s, brightness %.2f/%.2f\n",
		sched.BeforeSunset, cfg.Tree.StopTime, sched.BrightnessLow, sched.BrightnessHigh)
	for _, a := range built {
		fmt.Fprintf(out, "  animation %s\n", a.Name())
	}
	return nil
}
