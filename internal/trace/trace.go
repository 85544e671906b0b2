// Package trace reads malloc-lab style allocation traces and replays them
// against a checked allocator.
//
// Trace format, one operation per line:
//
//	a <id> <bytes>   allocate and bind the result to id
//	r <id> <bytes>   reallocate the block bound to id
//	f <id>           free the block bound to id
//
// Blank lines and lines starting with # are ignored. Lines holding a single
// number before the first operation are treated as the classic trace header
// (suggested heap size, id count, op count, weight) and skipped.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OpKind identifies a trace operation.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpFree    OpKind = 'f'
	OpRealloc OpKind = 'r'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	case OpRealloc:
		return "realloc"
	default:
		return fmt.Sprintf("op(%q)", byte(k))
	}
}

// Op is one parsed trace line.
type Op struct {
	Kind OpKind
	ID   int
	Size int // unused for OpFree
	Line int
}

// Trace is a parsed trace file.
type Trace struct {
	Name string
	Ops  []Op
	IDs  int // highest id + 1
}

const (
	commentPrefix = "#"

	// scannerMaxLineSize bounds a single trace line.
	scannerMaxLineSize = 64 * 1024
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("trace: syntax error")

// ParseError reports the line of a malformed trace.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// ParseFile parses the trace at path. The trace is named after the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, err
	}
	tr.Name = path
	return tr, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	tr := &Trace{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), scannerMaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		fields := strings.Fields(line)
		if len(tr.Ops) == 0 && len(fields) == 1 {
			if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
				continue // header
			}
		}

		op, err := parseOp(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: err.Error()}
		}
		op.Line = lineNo
		tr.Ops = append(tr.Ops, op)
		tr.IDs = max(tr.IDs, op.ID+1)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}
	return tr, nil
}

func parseOp(fields []string) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
	op := Op{Kind: OpKind(fields[0][0])}

	want := 3
	switch op.Kind {
	case OpAlloc, OpRealloc:
	case OpFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s takes %d arguments, got %d", op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}
