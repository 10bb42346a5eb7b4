package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/family-classifier/config"
	"github.com/angeloszaimis/family-classifier/internal/healthcheck"
	"github.com/angeloszaimis/family-classifier/pkg/logger"
)

type watchFlags struct {
	interval time.Duration
	duration time.Duration
}

func newWatchCmd(root *rootFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll /health and report up/down transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if flags.duration > 0 {
				var stop context.CancelFunc
				ctx, stop = context.WithTimeout(ctx, flags.duration)
				defer stop()
			}

			log := logger.New(root.logLevel, false, config.EnvDev)
			c := root.client()
			watcher := healthcheck.NewWatcher(c, root.server, flags.interval, log)

			out := cmd.OutOrStdout()
			watcher.OnChange(func(s healthcheck.Status) {
				state := "UP"
				if !s.Up {
					state = "DOWN"
				}
				line := fmt.Sprintf("%s %s %s", s.Since.Format(time.RFC3339), root.server, state)
				if s.LastError != "" {
					line += " (" + s.LastError + ")"
				}
				fmt.Fprintln(out, line)
			})

			watcher.Run(ctx)

			s := watcher.Status()
			fmt.Fprintf(out, "checks=%d up=%t breaker=%s failures=%d\n",
				s.Checks, s.Up, c.BreakerState(), c.BreakerFailures())
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&flags.interval, "interval", 5*time.Second, "Time between checks")
	f.DurationVar(&flags.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")

	return cmd
}
