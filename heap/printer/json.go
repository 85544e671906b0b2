package printer

import (
	"encoding/json"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// jsonDump is the JSON form of a block dump.
type jsonDump struct {
	Summary  Summary           `json:"summary"`
	Blocks   []alloc.BlockInfo `json:"blocks"`
	FreeList []alloc.Ptr       `json:"free_list"`
}

// jsonStats is the JSON form of allocator statistics.
type jsonStats struct {
	HeapSize   int         `json:"heap_size"`
	FreeBlocks int         `json:"free_blocks"`
	Stats      alloc.Stats `json:"stats"`
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) printBlocksJSON() error {
	blocks := p.filtered()
	if blocks == nil {
		blocks = []alloc.BlockInfo{}
	}
	free := p.src.FreeList()
	if free == nil {
		free = []alloc.Ptr{}
	}
	return p.encode(jsonDump{
		Summary:  Summarize(p.src.Blocks(), p.src.HeapSize()),
		Blocks:   blocks,
		FreeList: free,
	})
}

func (p *Printer) printStatsJSON() error {
	return p.encode(jsonStats{
		HeapSize:   p.src.HeapSize(),
		FreeBlocks: len(p.src.FreeList()),
		Stats:      p.src.Stats(),
	})
}

func (p *Printer) printHistogramJSON() error {
	hist := p.src.Histogram(p.opts.Histogram)
	if hist == nil {
		hist = []alloc.SizeClassCount{}
	}
	return p.encode(hist)
}
