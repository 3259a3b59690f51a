package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"organ/internal/lucky"
)

func newLuckyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lucky <catalog-file>",
		Short: "Generate a random composition from a catalog",
		Long:  "lucky draws a composition from the catalog and prints it in the formula file layout, ready for score or recipe.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, g, err := environment(v)
			if err != nil {
				return err
			}
			catalog, err := readCatalog(args[0])
			if err != nil {
				return err
			}

			candidates, _ := cmd.Flags().GetInt("candidates")
			if candidates < 1 || candidates > 50 {
				return fmt.Errorf("candidates must be between 1 and 50, got %d", candidates)
			}
			var gen *lucky.Generator
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				gen = lucky.NewSeeded(seed)
			} else {
				gen = lucky.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			}

			best, err := gen.Best(candidates, catalog, g, settings)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), formulaDocument(best.Formula))
		},
	}
	cmd.Flags().Uint64("seed", 0, "seed for a reproducible draw")
	cmd.Flags().Int("candidates", 1, "draws to compare; the most harmonious wins")
	return cmd
}
