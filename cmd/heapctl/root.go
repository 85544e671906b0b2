package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// Heap flags
	heapLimit    int
	chunkSize    int
	checkEvery   bool
	providerKind string
	heapFile     string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay allocation traces through the heapkit allocator",
	Long: `heapctl replays malloc-lab style allocation traces through the
explicit free list allocator and reports heap layout, statistics and
utilization. Every replay runs in checked mode, so double frees and
corrupted payloads are reported instead of silently damaging the heap.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && !quiet {
			logger.Init(logger.Options{
				Enabled: true,
				Writer:  os.Stderr,
				Level:   slog.LevelDebug,
			})
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")

	// Heap flags
	rootCmd.PersistentFlags().
		IntVar(&heapLimit, "heap-size", heap.DefaultMaxHeap, "Maximum heap size in bytes")
	rootCmd.PersistentFlags().
		IntVar(&chunkSize, "chunk", format.ChunkSize, "Minimum heap extension in bytes")
	rootCmd.PersistentFlags().
		BoolVar(&checkEvery, "check", false, "Run the heap checker after every operation")
	rootCmd.PersistentFlags().
		StringVar(&providerKind, "provider", providerSlice, "Heap memory: slice, mmap or file")
	rootCmd.PersistentFlags().
		StringVar(&heapFile, "file", "", "Backing file for --provider file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
