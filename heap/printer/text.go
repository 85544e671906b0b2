package printer

import (
	"fmt"
	"text/tabwriter"
)

func (p *Printer) printBlocksText() error {
	all := p.src.Blocks()
	tw := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ADDR\tSIZE\tSTATE\t")
	for _, b := range p.filtered() {
		state := "free"
		if b.Allocated {
			state = "alloc"
		}
		fmt.Fprintf(tw, "0x%08X\t%d\t%s\t\n", int(b.Addr), b.Size, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !p.opts.Summary {
		return nil
	}
	s := Summarize(all, p.src.HeapSize())
	_, err := p.num.Fprintf(p.writer,
		"heap %d bytes: %d blocks (%d allocated, %d free), %d free bytes, largest free %d\n",
		s.HeapSize, s.Blocks, s.Allocated, s.Free, s.FreeBytes, s.LargestFree)
	return err
}

func (p *Printer) printStatsText() error {
	st := p.src.Stats()
	rows := []struct {
		name string
		val  int
	}{
		{"Heap size", p.src.HeapSize()},
		{"Free list length", len(p.src.FreeList())},
		{"Alloc calls", st.AllocCalls},
		{"  from free list", st.AllocFastPath},
		{"  after extension", st.AllocSlowPath},
		{"Free calls", st.FreeCalls},
		{"Realloc calls", st.ReallocCalls},
		{"Extensions", st.ExtendCalls},
		{"Extension bytes", st.ExtendBytes},
		{"Splits", st.SplitCount},
		{"Forward merges", st.CoalesceForward},
		{"Backward merges", st.CoalesceBackward},
		{"Fit scan steps", st.FreeListScans},
		{"Live bytes", st.LiveBytes},
		{"Peak live bytes", st.PeakLiveBytes},
	}

	tw := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		p.num.Fprintf(tw, "%s:\t%d\n", r.name, r.val)
	}
	return tw.Flush()
}

func (p *Printer) printHistogramText() error {
	hist := p.src.Histogram(p.opts.Histogram)
	tw := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CLASS\tBLOCKS\tBYTES\t")
	prev := 0
	for _, c := range hist {
		label := p.num.Sprintf("<= %d", c.Max)
		if c.Max < 0 {
			label = p.num.Sprintf("> %d", prev)
		} else {
			prev = c.Max
		}
		p.num.Fprintf(tw, "%s\t%d\t%d\t\n", label, c.Blocks, c.Bytes)
	}
	return tw.Flush()
}
