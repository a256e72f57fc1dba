// Package nestedcsv reconstructs structured records from flat spreadsheet
// columns. Column headers use dotted/bracketed path notation, e.g.
// "location[1].city" or "obj.list[2]", and each data row is grafted into one
// tree of maps, ordered lists and scalar strings.
package nestedcsv

import (
	"strconv"
	"strings"

	"github.com/hei-registry/registrar/internal/dataerr"
)

// ErrMalformedPath is raised when a column header is not a valid field path.
var ErrMalformedPath = dataerr.New("malformed field path")

// Step is one element of a field path: a map key, a 1-based list position, or
// both (for the "name[i]" form).
type Step struct {
	Name     string // map key; empty for an index-only step
	Index    int    // 1-based list position, valid only if HasIndex
	HasIndex bool
}

// ParsePath parses a column header into an ordered field path.
//
// Grammar: path = step ('.' step)*, step = name | name '[' int ']' | '[' int ']'.
// The index-only form is allowed as the first step only. Names may not
// contain '.' or '['.
func ParsePath(header string) ([]Step, error) {
	if header == "" {
		return nil, dataerr.Newf(ErrMalformedPath, "empty field path")
	}

	var steps []Step
	rest := header
	for {
		step, tail, err := parseStep(rest, len(steps) == 0)
		if err != nil {
			return nil, dataerr.Newf(ErrMalformedPath, "malformed field path [%s]: %v", header, err)
		}
		steps = append(steps, step)

		if tail == "" {
			return steps, nil
		}
		// tail starts with the '.' separator
		rest = tail[1:]
		if rest == "" {
			return nil, dataerr.Newf(ErrMalformedPath, "malformed field path [%s]: trailing separator", header)
		}
	}
}

func parseStep(s string, first bool) (Step, string, error) {
	var step Step

	end := strings.IndexAny(s, ".[")
	if end == -1 {
		end = len(s)
	}
	step.Name = s[:end]
	s = s[end:]

	if s == "" || s[0] == '.' {
		if step.Name == "" {
			return step, "", errStep("empty step")
		}
		return step, s, nil
	}

	// bracketed index
	if step.Name == "" && !first {
		return step, "", errStep("index-only step allowed only at start")
	}
	end = strings.IndexByte(s, ']')
	if end == -1 {
		return step, "", errStep("unterminated bracket")
	}
	idx, err := strconv.Atoi(s[1:end])
	if err != nil || idx < 0 {
		return step, "", errStep("bracket content must be a non-negative integer")
	}
	step.Index = idx
	step.HasIndex = true

	s = s[end+1:]
	if s != "" && s[0] != '.' {
		return step, "", errStep("unexpected characters after bracket")
	}
	return step, s, nil
}

type stepError string

func errStep(msg string) error { return stepError(msg) }

func (e stepError) Error() string { return string(e) }

// String renders the path back into header notation.
func PathString(steps []Step) string {
	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(step.Name)
		if step.HasIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(step.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}
