package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	args := os.Args[1:]
	debugMode := false
	cfg := alloc.DefaultConfig

	// Extract flags; everything else is positional
	filteredArgs := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--debug" || arg == "-d":
			debugMode = true
		case arg == "--chunk" && i+1 < len(args):
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid --chunk %q\n", args[i])
				os.Exit(1)
			}
			cfg.ChunkSize = n
			cfg.InitialSize = n
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Logs go to a file since the terminal belongs to the TUI
	if debugMode {
		if f, err := openLogFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
		} else {
			defer f.Close()
			logger.Init(logger.Options{Enabled: true, Writer: f, Level: slog.LevelDebug, JSON: true})
		}
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	tracePath := filteredArgs[0]
	logger.Info("starting heapexplorer", "path", tracePath, "chunk", cfg.ChunkSize, "debug", debugMode)

	if _, err := os.Stat(tracePath); err != nil {
		logger.Error("trace file not found", "path", tracePath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: trace file not found: %s\n", tracePath)
		os.Exit(1)
	}

	m := NewModel(tracePath, cfg)

	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing heap", "error", err)
		}
	}

	logger.Info("heapexplorer exited normally")
}

// openLogFile opens today's debug log under the temp directory.
func openLogFile() (*os.File, error) {
	dir := filepath.Join(os.TempDir(), "heapexplorer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, "heapexplorer-"+time.Now().Format("2006-01-02")+".log")
	return os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <trace-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	var b strings.Builder
	b.WriteString("heapexplorer - Step through an allocation trace one op at a time\n\n")
	b.WriteString("USAGE:\n")
	b.WriteString("  heapexplorer [options] <trace-file>\n\n")
	b.WriteString("DESCRIPTION:\n")
	b.WriteString("  Replays a trace against a fresh heap and shows every block after each op.\n")
	b.WriteString("  Heap invariants are checked after every step; the first failure stops\n")
	b.WriteString("  the replay at the offending op.\n\n")
	b.WriteString("  Navigation:\n")
	b.WriteString("    →/l/n       Apply next op\n")
	b.WriteString("    ←/h/p       Step back one op\n")
	b.WriteString("    Home/g      Back to the start\n")
	b.WriteString("    End/G       Run to the end\n")
	b.WriteString("    ↑/↓ k/j     Scroll blocks\n")
	b.WriteString("    f           Show only free blocks\n")
	b.WriteString("    c           Copy the heap dump\n")
	b.WriteString("    ?           Show help\n")
	b.WriteString("    q           Quit\n\n")
	b.WriteString("OPTIONS:\n")
	b.WriteString("  --chunk N      Heap extension size in bytes (default 4096)\n")
	b.WriteString("  -d, --debug    Enable debug logging under $TMPDIR/heapexplorer/\n")
	b.WriteString("  -h, --help     Show this help message\n")
	b.WriteString("  -v, --version  Show version information\n\n")
	b.WriteString("For non-interactive runs, use the 'heapctl' command instead.\n")
	fmt.Print(b.String())
}
