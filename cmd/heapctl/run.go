package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/trace"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay a trace and report utilization",
		Long: `The run command replays an allocation trace through a checked
allocator and reports the op counts, final heap size, peak payload and
utilization (peak payload / heap size).

Example:
  heapctl run traces/short1.rep
  heapctl run traces/short1.rep --check
  heapctl run traces/short1.rep --provider file --file /tmp/heap.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	return cmd
}

// runReport is the JSON form of a run.
type runReport struct {
	Trace      string       `json:"trace"`
	Result     trace.Result `json:"result"`
	Extensions int          `json:"extensions"`
}

func runRun(args []string) error {
	s, res, err := replay(args[0])
	if s != nil {
		defer s.Close()
	}
	if err != nil {
		return err
	}

	report := runReport{
		Trace:      args[0],
		Result:     res,
		Extensions: s.alloc.Stats().ExtendCalls,
	}
	if jsonOut {
		return printJSON(report)
	}

	printInfo("Trace:        %s\n", report.Trace)
	printInfo("Ops:          %d (%d alloc, %d free, %d realloc)\n",
		res.Ops, res.Allocs, res.Frees, res.Reallocs)
	printInfo("Heap size:    %d bytes\n", res.HeapSize)
	printInfo("Peak payload: %d bytes\n", res.PeakPayload)
	printInfo("Utilization:  %.1f%%\n", res.Utilization*100)
	printInfo("Extensions:   %d\n", report.Extensions)
	printVerbose("Live blocks:  %d\n", s.checked.Live())
	return nil
}
