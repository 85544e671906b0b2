package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/writer"
)

var (
	dumpFreeOnly  bool
	dumpNoSummary bool
	dumpImage     string
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpFreeOnly, "free-only", false, "Only list free blocks")
	cmd.Flags().BoolVar(&dumpNoSummary, "no-summary", false, "Omit the totals line")
	cmd.Flags().StringVar(&dumpImage, "image", "", "Also write the raw heap bytes to this file")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <trace>",
		Short: "Replay a trace and print every heap block",
		Long: `The dump command replays an allocation trace and prints the final
heap in address order: payload address, block size and state.

If the replay fails the heap is dumped as it was at the failing op and the
error is returned afterwards.

Example:
  heapctl dump traces/short1.rep
  heapctl dump traces/short1.rep --free-only
  heapctl dump traces/short1.rep --json
  heapctl dump traces/short1.rep --image short1.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

func runDump(args []string) error {
	s, _, replayErr := replay(args[0])
	if s == nil {
		return replayErr
	}
	defer s.Close()

	opts := printer.DefaultOptions()
	opts.FreeOnly = dumpFreeOnly
	opts.Summary = !dumpNoSummary
	if jsonOut {
		opts.Format = printer.FormatJSON
	}

	if !quiet {
		if err := printer.New(s.alloc, os.Stdout, opts).PrintBlocks(); err != nil {
			return err
		}
	}
	if dumpImage != "" {
		w := &writer.FileWriter{Path: dumpImage}
		if err := w.WriteImage(s.region.Bytes()); err != nil {
			return fmt.Errorf("write heap image: %w", err)
		}
		printVerbose("Wrote %d byte heap image to %s\n", s.region.Size(), dumpImage)
	}
	if replayErr != nil {
		return replayErr
	}
	return s.alloc.CheckInvariants()
}
