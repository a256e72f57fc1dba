package nestedcsv

import (
	"fmt"
	"sort"
	"strconv"
)

// PathValue is one flattened (header, cell) pair.
type PathValue struct {
	Path  string
	Value string
}

// Flatten serializes a structured record back into flat (path, value) pairs,
// the inverse of Builder.Row. Pairs are returned in sorted path order so the
// output is deterministic.
func Flatten(record any) []PathValue {
	var out []PathValue
	flattenNode(record, "", &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func flattenNode(node any, prefix string, out *[]PathValue) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			flattenNode(v, p, out)
		}
	case []any:
		for i, v := range n {
			flattenNode(v, prefix+"["+strconv.Itoa(i+1)+"]", out)
		}
	case string:
		*out = append(*out, PathValue{Path: prefix, Value: n})
	default:
		*out = append(*out, PathValue{Path: prefix, Value: fmt.Sprintf("%v", n)})
	}
}
