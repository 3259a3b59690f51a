package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"organ/internal/wheel"
)

func newWheelCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wheel [wheel-file]",
		Short: "Validate a wheel file and list its families",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				g   *wheel.Graph
				err error
			)
			if len(args) == 1 {
				g, err = wheel.LoadFile(args[0])
			} else {
				_, g, err = environment(v)
			}
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), g.Document())
			}

			w := cmd.OutOrStdout()
			doc := g.Document()
			fmt.Fprintf(w, "%s (%s), %d families\n", doc.Name, doc.ID, len(doc.Families))
			for _, family := range doc.Families {
				compatible := g.CompatibleFamilies(family.ID)
				fmt.Fprintf(w, "  %-12s -> %s\n", family.ID, strings.Join(compatible, ", "))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the wheel document as JSON")
	return cmd
}
