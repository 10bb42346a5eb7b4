package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFamiliasCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "familias",
		Short: "List the families the model can predict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := root.client().Families(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range res.Familias {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintf(out, "Total: %d\n", res.Total)
			return nil
		},
	}
}
