package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/family-classifier/pkg/client"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	server   string
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "familiactl",
		Short:         "Query a fungal family classifier server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.server, "server", "http://localhost:5000", "Classifier server base URL")
	pf.DurationVar(&flags.timeout, "timeout", client.DefaultTimeout, "Per-request timeout")
	pf.StringVar(&flags.logLevel, "log-level", "error", "Log level for background checks")

	root.AddCommand(
		newPredictCmd(flags),
		newFamiliasCmd(flags),
		newHealthCmd(flags),
		newWatchCmd(flags),
		newBenchCmd(flags),
	)

	return root
}

func (f *rootFlags) client() *client.Client {
	return client.New(f.server, client.Options{Timeout: f.timeout})
}
