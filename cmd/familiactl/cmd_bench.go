package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
)

type benchFlags struct {
	file        string
	sets        []string
	concurrency int
	requests    int
	out         string
}

func newBenchCmd(root *rootFlags) *cobra.Command {
	flags := &benchFlags{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test /predict with one record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.requests < 1 {
				return fmt.Errorf("--requests must be at least 1")
			}

			rec, err := loadRecord(flags.file, cmd.InOrStdin(), flags.sets)
			if err != nil {
				return err
			}

			summary, err := runBench(cmd.Context(), root.client(), rec, flags.requests, flags.concurrency)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), summary)

			if flags.out != "" {
				if err := writeSummary(flags.out, summary); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWrote JSON summary to %s\n", flags.out)
			}

			if summary.Failure > 0 {
				return fmt.Errorf("%d of %d requests failed", summary.Failure, summary.TotalSent)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "JSON record to send (- for stdin)")
	f.StringArrayVar(&flags.sets, "set", nil, "Feature override as key=value (repeatable)")
	f.IntVarP(&flags.concurrency, "concurrency", "c", 10, "Number of concurrent workers")
	f.IntVarP(&flags.requests, "requests", "n", 100, "Total number of requests to send")
	f.StringVar(&flags.out, "out", "", "Write JSON summary to this file")

	return cmd
}

func printSummary(out io.Writer, s *benchSummary) {
	fmt.Fprintln(out, "--- Load Test Summary ---")
	fmt.Fprintf(out, "Target: %s\n", s.Target)
	fmt.Fprintf(out, "Requests: %d  Concurrency: %d\n", s.Requests, s.Concurrency)
	fmt.Fprintf(out, "Total sent: %d  Success: %d  Failure: %d\n", s.TotalSent, s.Success, s.Failure)
	fmt.Fprintf(out, "Duration: %dms  Throughput: %.2f req/s\n", s.DurationMS, s.ThroughputRPS)

	fmt.Fprintln(out, "\nStatus codes:")
	codes := make([]int, 0, len(s.StatusCodes))
	for k := range s.StatusCodes {
		codes = append(codes, k)
	}
	sort.Ints(codes)
	for _, k := range codes {
		label := fmt.Sprint(k)
		switch k {
		case outcomeTransportError:
			label = "transport error"
		case outcomeCircuitOpen:
			label = "circuit open"
		}
		fmt.Fprintf(out, "  %s -> %d\n", label, s.StatusCodes[k])
	}

	if len(s.Families) > 0 {
		fmt.Fprintln(out, "\nFamily distribution:")
		names := make([]string, 0, len(s.Families))
		for k := range s.Families {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(out, "  %s -> %d\n", k, s.Families[k])
		}
	}

	l := s.Latency
	if l.Samples > 0 {
		fmt.Fprintln(out, "\nLatencies (ms):")
		fmt.Fprintf(out, "  samples=%d min=%.3f avg=%.3f max=%.3f p50=%.3f p90=%.3f p95=%.3f p99=%.3f\n",
			l.Samples, l.Min, l.Avg, l.Max, l.P50, l.P90, l.P95, l.P99)
	}

	if len(s.Breakers) > 0 {
		fmt.Fprintln(out, "\nCircuit breakers:")
		urls := make([]string, 0, len(s.Breakers))
		for k := range s.Breakers {
			urls = append(urls, k)
		}
		sort.Strings(urls)
		for _, k := range urls {
			fmt.Fprintf(out, "  %s -> %s\n", k, s.Breakers[k])
		}
	}

	fmt.Fprintf(out, "\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())
}

func writeSummary(path string, s *benchSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
