// Package printer renders heap dumps, allocator statistics and free-block
// histograms as text or JSON.
package printer

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs human-readable text format.
	FormatText Format = "text"

	// FormatJSON outputs JSON format.
	FormatJSON Format = "json"
)

// Source is the allocator state the printer reads. *alloc.ListAllocator
// implements it.
type Source interface {
	Blocks() []alloc.BlockInfo
	FreeList() []alloc.Ptr
	HeapSize() int
	Stats() alloc.Stats
	Histogram(cfg *alloc.SizeClassConfig) []alloc.SizeClassCount
}

var _ Source = (*alloc.ListAllocator)(nil)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// FreeOnly limits block dumps to free blocks.
	// Default: false
	FreeOnly bool

	// Summary appends totals after a text block dump.
	// Default: true
	Summary bool

	// Histogram selects the size classes for PrintHistogram. nil uses
	// alloc.DefaultHistogram.
	Histogram *alloc.SizeClassConfig
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:  FormatText,
		Summary: true,
	}
}

// Printer handles formatted output of heap state.
type Printer struct {
	opts   Options
	writer io.Writer
	src    Source
	num    *message.Printer
}

// New creates a new Printer reading from src and writing to w.
//
// Example:
//
//	p := printer.New(a, os.Stdout, printer.DefaultOptions())
//	p.PrintBlocks()
func New(src Source, w io.Writer, opts Options) *Printer {
	return &Printer{
		opts:   opts,
		writer: w,
		src:    src,
		num:    message.NewPrinter(language.English),
	}
}

// PrintBlocks dumps every block in address order.
func (p *Printer) PrintBlocks() error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printBlocksJSON()
	case FormatText:
		return p.printBlocksText()
	default:
		return fmt.Errorf("printer: unknown format %q", p.opts.Format)
	}
}

// PrintStats prints allocator counters and heap totals.
func (p *Printer) PrintStats() error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printStatsJSON()
	case FormatText:
		return p.printStatsText()
	default:
		return fmt.Errorf("printer: unknown format %q", p.opts.Format)
	}
}

// PrintHistogram prints the free-block size distribution.
func (p *Printer) PrintHistogram() error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printHistogramJSON()
	case FormatText:
		return p.printHistogramText()
	default:
		return fmt.Errorf("printer: unknown format %q", p.opts.Format)
	}
}

// Summary aggregates a block walk.
type Summary struct {
	HeapSize    int `json:"heap_size"`
	Blocks      int `json:"blocks"`
	Allocated   int `json:"allocated"`
	Free        int `json:"free"`
	AllocBytes  int `json:"alloc_bytes"`
	FreeBytes   int `json:"free_bytes"`
	LargestFree int `json:"largest_free"`
}

// Summarize totals blocks for a heap of heapSize bytes.
func Summarize(blocks []alloc.BlockInfo, heapSize int) Summary {
	s := Summary{HeapSize: heapSize, Blocks: len(blocks)}
	for _, b := range blocks {
		if b.Allocated {
			s.Allocated++
			s.AllocBytes += b.Size
			continue
		}
		s.Free++
		s.FreeBytes += b.Size
		s.LargestFree = max(s.LargestFree, b.Size)
	}
	return s
}

func (p *Printer) filtered() []alloc.BlockInfo {
	blocks := p.src.Blocks()
	if !p.opts.FreeOnly {
		return blocks
	}
	out := blocks[:0]
	for _, b := range blocks {
		if !b.Allocated {
			out = append(out, b)
		}
	}
	return out
}
