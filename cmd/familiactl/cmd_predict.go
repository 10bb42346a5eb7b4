package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type predictFlags struct {
	file   string
	sets   []string
	asJSON bool
}

func newPredictCmd(root *rootFlags) *cobra.Command {
	flags := &predictFlags{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the family of one sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := loadRecord(flags.file, cmd.InOrStdin(), flags.sets)
			if err != nil {
				return err
			}

			res, err := root.client().Predict(cmd.Context(), rec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintf(out, "Familia:    %s\n", res.FamiliaPredicha)
			fmt.Fprintf(out, "Confianza:  %.4f (%s)\n", res.Confianza, res.ConfianzaPct)
			fmt.Fprintf(out, "Top %d:\n", len(res.Top3))
			for i, t := range res.Top3 {
				fmt.Fprintf(out, "  %d. %-20s %.4f\n", i+1, t.Familia, t.Probabilidad)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "JSON record to classify (- for stdin)")
	f.StringArrayVar(&flags.sets, "set", nil, "Feature override as key=value (repeatable)")
	f.BoolVar(&flags.asJSON, "json", false, "Print the raw JSON response")

	return cmd
}
