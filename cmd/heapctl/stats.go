package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
)

var (
	statsHistogram string
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().StringVar(&statsHistogram, "histogram", "pow2", "Free block size classes: pow2 or fine")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Replay a trace and show allocator statistics",
		Long: `The stats command replays an allocation trace and prints allocator
counters (fast and slow path allocations, splits, merges, extensions,
first-fit scan length) followed by a histogram of free block sizes.

Example:
  heapctl stats traces/short1.rep
  heapctl stats traces/short1.rep --histogram fine
  heapctl stats traces/short1.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
	return cmd
}

func histogramConfig(name string) (*alloc.SizeClassConfig, error) {
	switch name {
	case "pow2":
		return &alloc.HistogramPow2, nil
	case "fine":
		return &alloc.HistogramFine, nil
	default:
		return nil, fmt.Errorf("unknown histogram %q (want pow2 or fine)", name)
	}
}

// statsReport is the JSON form of the stats command.
type statsReport struct {
	HeapSize  int                    `json:"heap_size"`
	Stats     alloc.Stats            `json:"stats"`
	Histogram []alloc.SizeClassCount `json:"histogram"`
}

func runStats(args []string) error {
	hcfg, err := histogramConfig(statsHistogram)
	if err != nil {
		return err
	}

	s, _, err := replay(args[0])
	if s != nil {
		defer s.Close()
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(statsReport{
			HeapSize:  s.alloc.HeapSize(),
			Stats:     s.alloc.Stats(),
			Histogram: s.alloc.Histogram(hcfg),
		})
	}
	if quiet {
		return nil
	}

	opts := printer.DefaultOptions()
	opts.Histogram = hcfg
	p := printer.New(s.alloc, os.Stdout, opts)

	printInfo("Allocator statistics\n")
	if err := p.PrintStats(); err != nil {
		return err
	}
	printInfo("\nFree block sizes (%s)\n", hcfg.Name)
	return p.PrintHistogram()
}
