package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"organ/internal/composer"
	"organ/internal/recipe"
)

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <formula-file>",
		Short: "Print balance, harmony and cost for a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, scored, _, err := scoreFile(v, args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), scored)
			}
			printScore(cmd.OutOrStdout(), scored, settings.Currency)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the full score as JSON")
	return cmd
}

func newRecipeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <formula-file>",
		Short: "Render a bench recipe for a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, record, err := scoreFile(v, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), recipe.Text(record, settings.Currency))
			return nil
		},
	}
}

func newScaleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scale <formula-file>",
		Short: "Resize a formula to a target volume in ml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetFloat64("target")
			settings, _, record, err := scoreFile(v, args[0])
			if err != nil {
				return err
			}
			scaled, err := recipe.Scale(record, target, settings.Converter())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), scaled)
			}
			printScaled(cmd.OutOrStdout(), scaled, settings.Currency)
			return nil
		},
	}
	cmd.Flags().Float64("target", 30, "target volume in ml")
	cmd.Flags().Bool("json", false, "print the scaled recipe as JSON")
	return cmd
}

// scoreFile reads and scores a formula and snapshots it as an unsaved
// composition for the recipe helpers.
func scoreFile(v *viper.Viper, path string) (composer.Settings, composer.ScoredComposition, composer.Composition, error) {
	settings, g, err := environment(v)
	if err != nil {
		return composer.Settings{}, composer.ScoredComposition{}, composer.Composition{}, err
	}
	f, err := readFormula(path)
	if err != nil {
		return composer.Settings{}, composer.ScoredComposition{}, composer.Composition{}, err
	}
	scored, err := composer.Score(f, g, settings)
	if err != nil {
		return composer.Settings{}, composer.ScoredComposition{}, composer.Composition{}, err
	}
	record, err := composer.Snapshot(f, scored, nil, time.Now().UTC())
	if err != nil {
		return composer.Settings{}, composer.ScoredComposition{}, composer.Composition{}, err
	}
	return settings, scored, record, nil
}

func printScore(w io.Writer, s composer.ScoredComposition, currency string) {
	fmt.Fprintf(w, "%s\n\n", s.Name)
	fmt.Fprintf(w, "Total: %d drops, %.2f ml\n", s.Totals.Drops, s.Totals.Volume)
	fmt.Fprintf(w, "Cost: %s (%s per ml)\n", recipe.FormatPrice(s.Totals.Cost, currency), recipe.FormatPrice(s.Totals.CostPerVolume, currency))
	fmt.Fprintf(w, "Balance: top %.1f%%, middle %.1f%%, base %.1f%% (%s)\n",
		s.Balance.TopPercent, s.Balance.MiddlePercent, s.Balance.BasePercent, s.Assessment.Status)
	fmt.Fprintf(w, "  %s\n", s.Assessment.Message)
	fmt.Fprintf(w, "Harmony: %d%% (%d/%d pairs, %s)\n", s.Harmony.Score, s.Harmony.CompatiblePairs, s.Harmony.TotalPairs, s.Harmony.Band)
	fmt.Fprintf(w, "  %s\n", s.Harmony.Message)
	if len(s.CostRank) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCost breakdown:")
	for _, share := range s.CostRank {
		fmt.Fprintf(w, "  %-30s %10s  %5.1f%%\n", share.Name, recipe.FormatPrice(share.Cost, currency), share.Percentage)
	}
}

func printScaled(w io.Writer, s recipe.Scaled, currency string) {
	fmt.Fprintf(w, "%s scaled to %.2f ml (x%.3f)\n\n", s.Name, s.TargetVolume, s.ScaleFactor)
	for _, ing := range s.Ingredients {
		fmt.Fprintf(w, "  %-30s %6d drops  %8.2f ml  %10s\n", ing.Name, ing.ScaledDrops, ing.ScaledVolume, recipe.FormatPrice(ing.Cost, currency))
	}
	fmt.Fprintf(w, "\nTotal cost: %s\n", recipe.FormatPrice(s.TotalCost, currency))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
