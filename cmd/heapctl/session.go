package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/checked"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/trace"
)

const (
	providerSlice = "slice"
	providerMmap  = "mmap"
	providerFile  = "file"
)

// session is one allocator instance plus the memory behind it.
type session struct {
	region  *heap.Region
	tracker *dirty.Tracker // nil unless file-backed
	alloc   *alloc.ListAllocator
	checked *checked.Allocator
}

// openSession builds a region from the heap flags and initializes an
// allocator on it.
func openSession() (*session, error) {
	var (
		r   *heap.Region
		err error
	)
	switch providerKind {
	case providerSlice:
		r = heap.NewRegion(heapLimit)
	case providerMmap:
		r, err = heap.Map(heapLimit)
	case providerFile:
		if heapFile == "" {
			return nil, errors.New("--provider file requires --file")
		}
		r, err = heap.OpenFile(heapFile, heapLimit)
	default:
		return nil, fmt.Errorf("unknown provider %q (want slice, mmap or file)", providerKind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s region: %w", providerKind, err)
	}

	s := &session{region: r}
	var dt alloc.DirtyTracker
	if r.FileBacked() {
		s.tracker = dirty.NewTracker(r)
		dt = s.tracker
	}

	cfg := alloc.DefaultConfig
	cfg.ChunkSize = chunkSize
	cfg.InitialSize = chunkSize
	a, err := alloc.New(r, dt, &cfg)
	if err != nil {
		r.Close()
		return nil, err
	}
	s.alloc = a
	s.checked = checked.New(a, checked.Options{Invariants: checkEvery})
	return s, nil
}

// replay parses and replays the trace at path in a fresh session.
// The session is returned even when the replay fails so callers can dump
// the heap as it was at the failing op.
func replay(path string) (*session, trace.Result, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return nil, trace.Result{}, err
	}
	printVerbose("Parsed %s: %d ops, %d ids\n", path, len(tr.Ops), tr.IDs)

	s, err := openSession()
	if err != nil {
		return nil, trace.Result{}, err
	}
	res, err := trace.Replay(tr, s.checked)
	return s, res, err
}

// Close flushes dirty ranges of a file-backed heap and releases the region.
func (s *session) Close() error {
	var flushErr error
	if s.tracker != nil {
		flushErr = s.tracker.Flush(context.Background())
	}
	return errors.Join(flushErr, s.region.Close())
}
