package levels

import (
	"errors"
	"reflect"
	"testing"
)

func codes(s Set) []int {
	if len(s) == 0 {
		return nil
	}
	out := make([]int, len(s))
	for i, level := range s {
		out[i] = level.Code
	}
	return out
}

func TestParseSet(t *testing.T) {
	ref := Default()

	tests := []struct {
		name        string
		description string
		wantCodes   []int
		wantIgnored []string
	}{
		{
			name:        "single keyword",
			description: "first cycle",
			wantCodes:   []int{1},
		},
		{
			name:        "keyword pair",
			description: "first cycle, second cycle",
			wantCodes:   []int{1, 2},
		},
		{
			name:        "eqf numbering",
			description: "6-7",
			wantCodes:   []int{1, 2},
		},
		{
			name:        "eqf with prefix words",
			description: "EQF 6, EQF 7",
			wantCodes:   []int{1, 2},
			wantIgnored: []string{"EQF", "EQF"},
		},
		{
			name:        "internal codes",
			description: "0, 1, 2, 3",
			wantCodes:   []int{0, 1, 2, 3},
		},
		{
			name:        "digit with suffix text",
			description: "6th level",
			wantCodes:   []int{1},
			wantIgnored: []string{"level"},
		},
		{
			name:        "common typo",
			description: "secound cycle",
			wantCodes:   []int{2},
		},
		{
			name:        "ordinal keywords",
			description: "1st and 2nd cycles",
			wantCodes:   []int{1, 2},
			wantIgnored: []string{"and"},
		},
		{
			name:        "duplicates collapse",
			description: "first, first cycle, 6",
			wantCodes:   []int{1},
		},
		{
			name:        "bare cycle ignored silently",
			description: "cycle",
		},
		{
			name:        "empty after trim",
			description: " ,.\n",
		},
		{
			name:        "short cycle",
			description: "short cycle (EQF 5)",
			wantCodes:   []int{0},
			wantIgnored: []string{"EQF"},
		},
		{
			name:        "mixed case",
			description: "First Cycle / SECOND cycle",
			wantCodes:   []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, ignored, err := ParseSet(ref, tt.description, false)
			if err != nil {
				t.Fatalf("ParseSet(%q) returned error: %v", tt.description, err)
			}
			if got := codes(set); !reflect.DeepEqual(got, tt.wantCodes) {
				t.Errorf("ParseSet(%q) codes = %v, want %v", tt.description, got, tt.wantCodes)
			}
			if !reflect.DeepEqual(ignored, tt.wantIgnored) {
				t.Errorf("ParseSet(%q) ignored = %v, want %v", tt.description, ignored, tt.wantIgnored)
			}
		})
	}
}

func TestParseSetStrict(t *testing.T) {
	ref := Default()

	if _, _, err := ParseSet(ref, "bachelor degree", true); !errors.Is(err, ErrUnrecognizedLevel) {
		t.Errorf("strict parse of unknown token = %v, want ErrUnrecognizedLevel", err)
	}

	set, ignored, err := ParseSet(ref, "first cycle, second cycle", true)
	if err != nil {
		t.Fatalf("strict parse of valid description returned error: %v", err)
	}
	if len(ignored) != 0 {
		t.Errorf("strict parse ignored tokens: %v", ignored)
	}
	if got := codes(set); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("strict parse codes = %v, want [1 2]", got)
	}
}

func TestParseSetRestrictedReference(t *testing.T) {
	// an enumeration missing the short cycle cannot yield it
	ref := List{
		{ID: 2, Code: 1, Label: "first cycle"},
		{ID: 3, Code: 2, Label: "second cycle"},
		{ID: 4, Code: 3, Label: "third cycle"},
	}

	set, ignored, err := ParseSet(ref, "short cycle, first cycle", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := codes(set); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("codes = %v, want [1]", got)
	}
	if !reflect.DeepEqual(ignored, []string{"short"}) {
		t.Errorf("ignored = %v, want [short]", ignored)
	}

	if _, _, err := ParseSet(ref, "short cycle", true); !errors.Is(err, ErrUnrecognizedLevel) {
		t.Errorf("strict parse against restricted list = %v, want ErrUnrecognizedLevel", err)
	}
}

func TestSetString(t *testing.T) {
	ref := Default()

	tests := []struct {
		description string
		want        string
	}{
		{"first cycle, second cycle", "QF-EHEA: 6-7"},
		{"0, 1, 2, 3", "QF-EHEA: 5-6-7-8"},
		{"third cycle", "QF-EHEA: 8"},
		{"", "QF-EHEA: "},
	}

	for _, tt := range tests {
		set, _, err := ParseSet(ref, tt.description, false)
		if err != nil {
			t.Fatal(err)
		}
		if got := set.String(); got != tt.want {
			t.Errorf("String() for %q = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestSetEqual(t *testing.T) {
	ref := Default()

	a, _, _ := ParseSet(ref, "first cycle, second cycle", false)
	b, _, _ := ParseSet(ref, "7, 6", false)
	c, _, _ := ParseSet(ref, "first cycle", false)

	if !a.Equal(b) {
		t.Errorf("%v should equal %v regardless of order", a, b)
	}
	if a.Equal(c) {
		t.Errorf("%v should not equal %v", a, c)
	}
	if !Set(nil).Equal(Set{}) {
		t.Error("empty sets should be equal")
	}
}

func TestListLookup(t *testing.T) {
	ref := Default()

	if level, ok := ref.Lookup("2"); !ok || level.Label != "second cycle" {
		t.Errorf("Lookup(2) = %+v, %v", level, ok)
	}
	if level, ok := ref.Lookup("third cycle"); !ok || level.Code != 3 {
		t.Errorf("Lookup(third cycle) = %+v, %v", level, ok)
	}
	if _, ok := ref.Lookup("9"); ok {
		t.Error("Lookup(9) should not resolve")
	}
	if _, ok := ref.Lookup("no such level"); ok {
		t.Error("Lookup(no such level) should not resolve")
	}
}
