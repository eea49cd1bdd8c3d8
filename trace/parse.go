package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// headerFields is the number of integers before the first op.
const headerFields = 4

// Parse reads a trace in the malloc-lab format:
//
//	<suggested heap size>
//	<number of ids>
//	<number of ops>
//	<weight>
//	a <id> <bytes>
//	r <id> <bytes>
//	f <id>
//
// Blank lines and lines starting with # are ignored. The op count in the
// header must match the ops that follow, and the id count may not exceed it.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	t := &Trace{}
	var header [headerFields]int
	seen := 0
	numOps := 0
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if seen < headerFields {
			v, err := strconv.Atoi(text)
			if err != nil || v < 0 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("bad header value %q", text)}
			}
			header[seen] = v
			seen++
			if seen == headerFields {
				t.HeapSize, t.NumIDs, numOps, t.Weight = header[0], header[1], header[2], header[3]
				if t.NumIDs > numOps {
					return nil, &ParseError{Line: line, Msg: fmt.Sprintf("header declares %d ids for %d ops", t.NumIDs, numOps)}
				}
				t.Ops = make([]Op, 0, min(numOps, 1<<20))
			}
			continue
		}

		op, err := parseOp(text)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: err.Error()}
		}
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}

	if seen < headerFields {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("truncated header: %d of %d values", seen, headerFields)}
	}
	if len(t.Ops) != numOps {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("header declares %d ops, found %d", numOps, len(t.Ops))}
	}
	return t, nil
}

func parseOp(text string) (Op, error) {
	fields := strings.Fields(text)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}

	kind := OpKind(fields[0][0])
	want := 3
	switch kind {
	case OpAlloc, OpRealloc:
	case OpFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s takes %d fields, got %d", kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op := Op{Kind: kind, ID: id}
	if want == 3 {
		op.Size, err = strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
	}
	return op, nil
}

// ParseFile parses the trace at path. The trace is named after the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// WriteTo writes t in the format Parse reads.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	write := func(format string, args ...any) error {
		n, err := fmt.Fprintf(bw, format, args...)
		total += int64(n)
		return err
	}

	if err := write("%d\n%d\n%d\n%d\n", t.HeapSize, t.NumIDs, len(t.Ops), t.Weight); err != nil {
		return total, err
	}
	for _, op := range t.Ops {
		if err := write("%v\n", op); err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// WriteFile writes t to path.
func (t *Trace) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
