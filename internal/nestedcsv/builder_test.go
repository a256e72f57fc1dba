package nestedcsv

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestBuilderRow(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		values  []string
		want    any
	}{
		{
			name:    "flat scalars",
			headers: []string{"name", "city"},
			values:  []string{"Example University", "Graz"},
			want: map[string]any{
				"name": "Example University",
				"city": "Graz",
			},
		},
		{
			name:    "nested map",
			headers: []string{"obj.a", "obj.b"},
			values:  []string{"1", "2"},
			want: map[string]any{
				"obj": map[string]any{"a": "1", "b": "2"},
			},
		},
		{
			name:    "list of scalars",
			headers: []string{"tag[1]", "tag[2]", "tag[3]"},
			values:  []string{"x", "y", "z"},
			want: map[string]any{
				"tag": []any{"x", "y", "z"},
			},
		},
		{
			name:    "list of maps",
			headers: []string{"location[1].city", "location[1].country", "location[2].city"},
			values:  []string{"Graz", "AT", "Vienna"},
			want: map[string]any{
				"location": []any{
					map[string]any{"city": "Graz", "country": "AT"},
					map[string]any{"city": "Vienna"},
				},
			},
		},
		{
			name:    "deep mixed nesting",
			headers: []string{"obj.list[1].name", "obj.list[2].name", "obj.scalar"},
			values:  []string{"first", "second", "s"},
			want: map[string]any{
				"obj": map[string]any{
					"list": []any{
						map[string]any{"name": "first"},
						map[string]any{"name": "second"},
					},
					"scalar": "s",
				},
			},
		},
		{
			name:    "empty cells skipped",
			headers: []string{"name", "acronym", "city"},
			values:  []string{"Example University", "", "  "},
			want: map[string]any{
				"name": "Example University",
			},
		},
		{
			name:    "values trimmed",
			headers: []string{"name"},
			values:  []string{"  Example University  "},
			want: map[string]any{
				"name": "Example University",
			},
		},
		{
			name:    "index-only root collapses to list",
			headers: []string{"[1].name", "[2].name"},
			values:  []string{"a", "b"},
			want: []any{
				map[string]any{"name": "a"},
				map[string]any{"name": "b"},
			},
		},
		{
			name:    "list with trailing empty cells stays dense",
			headers: []string{"tag[1]", "tag[2]", "tag[3]"},
			values:  []string{"x", "y", ""},
			want: map[string]any{
				"tag": []any{"x", "y"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.headers)
			if err != nil {
				t.Fatalf("NewBuilder(%v) returned error: %v", tt.headers, err)
			}
			got, err := b.Row(tt.values)
			if err != nil {
				t.Fatalf("Row(%v) returned error: %v", tt.values, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Row(%v) = %#v, want %#v", tt.values, got, tt.want)
			}
		})
	}
}

func TestBuilderRowErrors(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		values  []string
		want    error
	}{
		{
			name:    "too few values",
			headers: []string{"a", "b", "c"},
			values:  []string{"1", "2"},
			want:    ErrColumnCountMismatch,
		},
		{
			name:    "too many values",
			headers: []string{"a"},
			values:  []string{"1", "2"},
			want:    ErrColumnCountMismatch,
		},
		{
			name:    "list with gap",
			headers: []string{"tag[1]", "tag[3]"},
			values:  []string{"x", "y"},
			want:    ErrNonContiguousIndex,
		},
		{
			name:    "list starting at zero",
			headers: []string{"tag[0]", "tag[1]"},
			values:  []string{"x", "y"},
			want:    ErrNonContiguousIndex,
		},
		{
			name:    "scalar then map",
			headers: []string{"obj", "obj.a"},
			values:  []string{"s", "1"},
			want:    ErrPathConflict,
		},
		{
			name:    "map then list",
			headers: []string{"obj.a", "obj[1]"},
			values:  []string{"1", "2"},
			want:    ErrPathConflict,
		},
		{
			name:    "duplicate leaf",
			headers: []string{"name", "name"},
			values:  []string{"a", "b"},
			want:    ErrPathConflict,
		},
		{
			name:    "duplicate list element",
			headers: []string{"tag[1]", "tag[1]"},
			values:  []string{"x", "y"},
			want:    ErrPathConflict,
		},
		{
			name:    "index-only mixed with named root",
			headers: []string{"[1].name", "other"},
			values:  []string{"a", "b"},
			want:    ErrPathConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.headers)
			if err != nil {
				t.Fatalf("NewBuilder(%v) returned error: %v", tt.headers, err)
			}
			_, err = b.Row(tt.values)
			if !errors.Is(err, tt.want) {
				t.Errorf("Row(%v) error = %v, want %v", tt.values, err, tt.want)
			}
		})
	}
}

func TestBuilderRowsIndependent(t *testing.T) {
	b, err := NewBuilder([]string{"location[1].city", "location[2].city"})
	if err != nil {
		t.Fatal(err)
	}

	first, err := b.Row([]string{"Graz", "Vienna"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Row([]string{"Linz", ""})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{"location": []any{map[string]any{"city": "Graz"}, map[string]any{"city": "Vienna"}}}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first row mutated: %#v", first)
	}
	want = map[string]any{"location": []any{map[string]any{"city": "Linz"}}}
	if !reflect.DeepEqual(second, want) {
		t.Errorf("second row = %#v, want %#v", second, want)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	headers := []string{"name", "obj.a", "location[1].city", "location[2].city", "tag[1]"}
	values := []string{"Example University", "1", "Graz", "Vienna", "x"}

	b, err := NewBuilder(headers)
	if err != nil {
		t.Fatal(err)
	}
	record, err := b.Row(values)
	if err != nil {
		t.Fatal(err)
	}

	flat := Flatten(record)
	want := []PathValue{
		{Path: "location[1].city", Value: "Graz"},
		{Path: "location[2].city", Value: "Vienna"},
		{Path: "name", Value: "Example University"},
		{Path: "obj.a", Value: "1"},
		{Path: "tag[1]", Value: "x"},
	}
	if !reflect.DeepEqual(flat, want) {
		t.Fatalf("Flatten = %v, want %v", flat, want)
	}

	// rebuilding from the flattened pairs yields the same record
	var rheaders, rvalues []string
	for _, pv := range flat {
		rheaders = append(rheaders, pv.Path)
		rvalues = append(rvalues, pv.Value)
	}
	rb, err := NewBuilder(rheaders)
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := rb.Row(rvalues)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rebuilt, record) {
		t.Errorf("round trip changed record: %#v != %#v", rebuilt, record)
	}
}

func TestReader(t *testing.T) {
	input := strings.Join([]string{
		"name,location[1].city,location[1].country",
		"Example University,Graz,AT",
		"Other University,Vienna,AT",
	}, "\n")

	r, err := NewReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewReader returned error: %v", err)
	}
	if got := r.Headers(); len(got) != 3 {
		t.Fatalf("Headers() = %v, want 3 columns", got)
	}

	first, err := r.Next()
	if err != nil {
		t.Fatalf("first Next() returned error: %v", err)
	}
	want := map[string]any{
		"name": "Example University",
		"location": []any{
			map[string]any{"city": "Graz", "country": "AT"},
		},
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first record = %#v, want %#v", first, want)
	}
	if r.Line() != 2 {
		t.Errorf("Line() = %d, want 2", r.Line())
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("second Next() returned error: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestReaderSkipsBadRow(t *testing.T) {
	input := strings.Join([]string{
		"name,tag[1],tag[3]",
		"broken,a,b",
		"still readable,,",
	}, "\n")

	r, err := NewReader(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Next(); !errors.Is(err, ErrNonContiguousIndex) {
		t.Fatalf("bad row error = %v, want ErrNonContiguousIndex", err)
	}
	record, err := r.Next()
	if err != nil {
		t.Fatalf("Next() after bad row returned error: %v", err)
	}
	want := map[string]any{"name": "still readable"}
	if !reflect.DeepEqual(record, want) {
		t.Errorf("record = %#v, want %#v", record, want)
	}
}

func TestNewBuilderMalformedHeader(t *testing.T) {
	if _, err := NewBuilder([]string{"name", "a..b"}); !errors.Is(err, ErrMalformedPath) {
		t.Errorf("NewBuilder error = %v, want ErrMalformedPath", err)
	}
}
