// Package levels models the QF-EHEA qualification levels and parses free-text
// level descriptions into normalized level sets.
//
// The four levels (short, first, second and third cycle) are a fixed
// reference enumeration supplied by the caller; the tokenizer only ever
// selects from it and never invents levels.
package levels

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hei-registry/registrar/internal/dataerr"
)

// ErrUnrecognizedLevel is raised in strict mode when a token of a level
// description matches no known level.
var ErrUnrecognizedLevel = dataerr.New("QF-EHEA level not recognised")

// Level is one entry of the QF-EHEA reference enumeration.
type Level struct {
	ID    int    `json:"id"`
	Code  int    `json:"code"`
	Label string `json:"level"`
}

// List is the reference enumeration of QF-EHEA levels.
type List []Level

// Default returns the canonical four-level enumeration. Production runs load
// the list from the registry instead; this is for offline and test use.
func Default() List {
	return List{
		{ID: 1, Code: 0, Label: "short cycle"},
		{ID: 2, Code: 1, Label: "first cycle"},
		{ID: 3, Code: 2, Label: "second cycle"},
		{ID: 4, Code: 3, Label: "third cycle"},
	}
}

// ByCode looks up a level by its internal code (0-3).
func (l List) ByCode(code int) (Level, bool) {
	for _, level := range l {
		if level.Code == code {
			return level, true
		}
	}
	return Level{}, false
}

// ByLabel looks up a level by its label, e.g. "first cycle".
func (l List) ByLabel(label string) (Level, bool) {
	for _, level := range l {
		if level.Label == label {
			return level, true
		}
	}
	return Level{}, false
}

// Lookup resolves a numeric code (as string) or label.
func (l List) Lookup(which string) (Level, bool) {
	if code, err := strconv.Atoi(strings.TrimSpace(which)); err == nil {
		return l.ByCode(code)
	}
	return l.ByLabel(strings.TrimSpace(which))
}

// Set is a deduplicated set of recognized levels. Iteration order is the
// order of first recognition; equality is order-independent.
type Set []Level

// keyword tokens map to internal codes; "secound" covers a frequent typo in
// source spreadsheets.
var levelKeywords = map[string]int{
	"short":   0,
	"first":   1,
	"second":  2,
	"secound": 2,
	"third":   3,
}

var tokenSplit = regexp.MustCompile(`[^A-Za-z0-9]+`)

// ParseSet parses a free-text qualification-level description into a set of
// levels from the reference enumeration ref.
//
// Tokens are runs of alphanumeric characters. A token counts if it starts
// with a digit 0-3 (internal code), a digit 5-8 (EQF numbering, shifted down
// by 5), or a level keyword; the bare word "cycle" is ignored. In strict mode
// any other token fails with ErrUnrecognizedLevel; otherwise it is dropped
// and reported in the returned slice of ignored tokens.
func ParseSet(ref List, description string, strict bool) (Set, []string, error) {
	var (
		set     Set
		seen    [4]bool
		ignored []string
	)

	trimmed := strings.Trim(description, " ,.\n\r\t\v\f")
	if trimmed == "" {
		return set, nil, nil
	}

	for _, token := range tokenSplit.Split(trimmed, -1) {
		if token == "" {
			continue
		}
		code, ok := matchToken(token)
		if !ok {
			if strings.HasPrefix(strings.ToLower(token), "cycle") {
				continue
			}
			if strict {
				return nil, nil, dataerr.Newf(ErrUnrecognizedLevel,
					"[%s]: QF-EHEA level not recognised", token)
			}
			ignored = append(ignored, token)
			continue
		}
		if seen[code] {
			continue
		}
		level, ok := ref.ByCode(code)
		if !ok {
			// enumeration does not carry this code; treat like unknown
			if strict {
				return nil, nil, dataerr.Newf(ErrUnrecognizedLevel,
					"[%s]: QF-EHEA level not in reference list", token)
			}
			ignored = append(ignored, token)
			continue
		}
		seen[code] = true
		set = append(set, level)
	}
	return set, ignored, nil
}

// matchToken maps the leading pattern of a token to an internal level code.
func matchToken(token string) (int, bool) {
	switch token[0] {
	case '0', '1', '2', '3':
		return int(token[0] - '0'), true
	case '5', '6', '7', '8':
		// EQF levels 5-8 align with internal codes 0-3
		return int(token[0]-'0') - 5, true
	}
	lower := strings.ToLower(token)
	for keyword, code := range levelKeywords {
		if strings.HasPrefix(lower, keyword) {
			return code, true
		}
	}
	return 0, false
}

// Contains reports whether the set carries the given internal code.
func (s Set) Contains(code int) bool {
	for _, level := range s {
		if level.Code == code {
			return true
		}
	}
	return false
}

// Equal compares two sets regardless of iteration order.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for _, level := range s {
		if !other.Contains(level.Code) {
			return false
		}
	}
	return true
}

// String renders the set for diagnostics in EQF numbering, e.g. "QF-EHEA: 6-7".
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, level := range s {
		parts[i] = strconv.Itoa(level.Code + 5)
	}
	return "QF-EHEA: " + strings.Join(parts, "-")
}
