// Package institution normalizes raw institution records into canonical form
// and flags probable duplicates of already-known institutions.
package institution

import (
	"fmt"
	"strings"
)

// Input carries the free-form key/value attributes of one incoming
// institution record, plus repeatable other-location entries for the richer
// other-provider variant.
type Input struct {
	Fields         map[string]string
	OtherLocations []LocationInput

	// OtherProvider selects the other-provider variant: locations beyond
	// the first are accepted and a provider organization type may be set.
	OtherProvider bool
}

// LocationInput is one raw location entry.
type LocationInput struct {
	Country   string
	City      string
	Latitude  string
	Longitude string
}

// Coalesce returns the first non-empty value among the given keys, trimmed.
// This is the ordered-fallback accessor used for loosely-typed rows where the
// same attribute may arrive under several column names.
func (in Input) Coalesce(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(in.Fields[key]); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether the key is present at all, even with an empty value.
func (in Input) Has(key string) bool {
	_, ok := in.Fields[key]
	return ok
}

// FromRecord converts a structured record produced by the nested CSV reader
// into an Input. Top-level scalars become fields, scalar lists are joined
// with ", " (the level tokenizer splits them again), and the "other_location"
// list becomes structured location entries.
func FromRecord(record any) (Input, error) {
	tree, ok := record.(map[string]any)
	if !ok {
		return Input{}, fmt.Errorf("record is not a field map")
	}

	in := Input{Fields: make(map[string]string, len(tree))}
	for key, node := range tree {
		switch v := node.(type) {
		case string:
			in.Fields[key] = v
		case []any:
			if key == "other_location" {
				locations, err := locationsFromList(v)
				if err != nil {
					return Input{}, err
				}
				in.OtherLocations = locations
				continue
			}
			parts := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return Input{}, fmt.Errorf("field [%s] holds a nested structure", key)
				}
				parts = append(parts, s)
			}
			in.Fields[key] = strings.Join(parts, ", ")
		default:
			return Input{}, fmt.Errorf("field [%s] holds a nested structure", key)
		}
	}
	return in, nil
}

func locationsFromList(list []any) ([]LocationInput, error) {
	locations := make([]LocationInput, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("other_location[%d] is not a field map", i+1)
		}
		var loc LocationInput
		for key, node := range entry {
			s, ok := node.(string)
			if !ok {
				return nil, fmt.Errorf("other_location[%d].%s holds a nested structure", i+1, key)
			}
			switch key {
			case "country":
				loc.Country = s
			case "city":
				loc.City = s
			case "latitude":
				loc.Latitude = s
			case "longitude":
				loc.Longitude = s
			}
		}
		locations = append(locations, loc)
	}
	return locations, nil
}
