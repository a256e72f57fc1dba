package nestedcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hei-registry/registrar/internal/dataerr"
)

// Builder errors. Each one is fatal for the row being assembled only.
var (
	ErrColumnCountMismatch = dataerr.New("column count mismatch")
	ErrNonContiguousIndex  = dataerr.New("non-contiguous list index")
	ErrPathConflict        = dataerr.New("conflicting field paths")
)

// listNode is an intermediate container keyed by 1-based index. It is
// converted to an ordered []any slice once the row is complete.
type listNode map[int]any

// Builder assembles one structured record per data row from a fixed header
// row. It holds no cross-row state; every row yields an independent record.
type Builder struct {
	headers []string
	paths   [][]Step
}

// NewBuilder parses every header into a field path. A malformed header fails
// the whole builder, since no row could ever be assembled from it.
func NewBuilder(headers []string) (*Builder, error) {
	b := &Builder{
		headers: headers,
		paths:   make([][]Step, len(headers)),
	}
	for i, h := range headers {
		path, err := ParsePath(strings.TrimSpace(h))
		if err != nil {
			return nil, err
		}
		b.paths[i] = path
	}
	return b, nil
}

// Headers returns the header row the builder was created from.
func (b *Builder) Headers() []string {
	return b.headers
}

// Row grafts one row of cell values into a fresh record tree. Empty cells are
// skipped. The result is a map[string]any tree (or a []any tree if the
// headers use the index-only form) with all lists dense and ordered.
func (b *Builder) Row(values []string) (any, error) {
	if len(values) != len(b.paths) {
		return nil, dataerr.Newf(ErrColumnCountMismatch,
			"row has %d values for %d columns", len(values), len(b.paths))
	}

	root := make(map[string]any)
	for i, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if err := graft(root, b.paths[i], value); err != nil {
			return nil, err
		}
	}
	return finalize(root)
}

// graft walks the path from the root map, creating or reusing containers, and
// places the scalar value at the leaf.
func graft(root map[string]any, path []Step, value string) error {
	var node any = root
	for i, step := range path {
		last := i == len(path)-1
		prefix := PathString(path[:i+1])

		if step.Name != "" || !step.HasIndex {
			m, ok := node.(map[string]any)
			if !ok {
				return conflict(prefix)
			}
			if step.HasIndex {
				child, ok := m[step.Name]
				if !ok {
					child = make(listNode)
					m[step.Name] = child
				}
				l, ok := child.(listNode)
				if !ok {
					return conflict(prefix)
				}
				node = l
			} else if last {
				if _, exists := m[step.Name]; exists {
					return conflict(prefix)
				}
				m[step.Name] = value
				return nil
			} else {
				child, ok := m[step.Name]
				if !ok {
					child = make(map[string]any)
					m[step.Name] = child
				}
				node = child
				continue
			}
		} else {
			// index-only step: the root itself is a list
			m, ok := node.(map[string]any)
			if !ok {
				return conflict(prefix)
			}
			child, ok := m[""]
			if !ok {
				child = make(listNode)
				m[""] = child
			}
			l, ok := child.(listNode)
			if !ok {
				return conflict(prefix)
			}
			node = l
		}

		// node is now the list container; descend into the indexed element
		l := node.(listNode)
		if last {
			if _, exists := l[step.Index]; exists {
				return conflict(prefix)
			}
			l[step.Index] = value
			return nil
		}
		elem, ok := l[step.Index]
		if !ok {
			elem = make(map[string]any)
			l[step.Index] = elem
		}
		if _, ok := elem.(map[string]any); !ok {
			return conflict(prefix)
		}
		node = elem
	}
	return nil
}

func conflict(prefix string) error {
	return dataerr.Newf(ErrPathConflict, "field path [%s] used both as scalar/map and as list", prefix)
}

// finalize converts intermediate listNode containers into ordered slices,
// checking that every list is populated densely from 1..max.
func finalize(node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		// an index-only root collapses to a bare list
		if l, ok := n[""]; ok {
			if len(n) > 1 {
				return nil, conflict("")
			}
			return finalize(l)
		}
		for k, v := range n {
			fv, err := finalize(v)
			if err != nil {
				return nil, err
			}
			n[k] = fv
		}
		return n, nil
	case listNode:
		out := make([]any, len(n))
		for idx, v := range n {
			if idx < 1 || idx > len(n) {
				return nil, dataerr.Newf(ErrNonContiguousIndex,
					"list index %d outside dense range 1..%d", idx, len(n))
			}
			fv, err := finalize(v)
			if err != nil {
				return nil, err
			}
			out[idx-1] = fv
		}
		return out, nil
	default:
		return node, nil
	}
}

// Reader streams structured records from a delimited-text source, one record
// per data row. The first row is the header row.
type Reader struct {
	builder *Builder
	csv     *csv.Reader
	line    int
}

// NewReader wraps r as a CSV source and reads its header row.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	builder, err := NewBuilder(headers)
	if err != nil {
		return nil, err
	}
	return &Reader{builder: builder, csv: cr, line: 1}, nil
}

// Headers returns the parsed header row.
func (r *Reader) Headers() []string {
	return r.builder.Headers()
}

// Line returns the 1-based line number of the most recently read row.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the record assembled from the next data row, io.EOF at the end
// of input, or a per-row error. After a data error the caller may keep
// calling Next to skip the bad row and continue.
func (r *Reader) Next() (any, error) {
	values, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	record, err := r.builder.Row(values)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.line, err)
	}
	return record, nil
}
