// Package refdata holds the reference lists the normalizer resolves input
// values against: countries, hierarchical relationship types and provider
// organization types. Each list is loaded once by the caller (from the
// registry API or from fixtures) and injected explicitly — there are no
// hidden global caches.
package refdata

import (
	"strconv"
	"strings"
)

// Country is one entry of the country reference list.
type Country struct {
	ID          int    `json:"id"`
	Alpha2      string `json:"iso_3166_alpha2"`
	Alpha3      string `json:"iso_3166_alpha3"`
	NameEnglish string `json:"name_english"`
}

// Countries allows lookup of countries by numeric ID or ISO 3166 code.
type Countries []Country

// Get resolves a country designator: a numeric ID (as digits) or an ISO
// alpha-2/alpha-3 code.
func (c Countries) Get(which string) (Country, bool) {
	which = strings.TrimSpace(which)
	if id, err := strconv.Atoi(which); err == nil {
		for _, country := range c {
			if country.ID == id {
				return country, true
			}
		}
		return Country{}, false
	}
	for _, country := range c {
		if which == country.Alpha2 || which == country.Alpha3 {
			return country, true
		}
	}
	return Country{}, false
}

// RelationshipType is one entry of the hierarchical-relationship reference
// list, e.g. "faculty" or "consortium".
type RelationshipType struct {
	ID    int    `json:"id"`
	Label string `json:"type"`
}

// RelationshipTypes allows lookup by numeric ID or label.
type RelationshipTypes []RelationshipType

// Get resolves a relationship-type designator: numeric ID or label.
func (r RelationshipTypes) Get(which string) (RelationshipType, bool) {
	which = strings.TrimSpace(which)
	if id, err := strconv.Atoi(which); err == nil {
		for _, t := range r {
			if t.ID == id {
				return t, true
			}
		}
		return RelationshipType{}, false
	}
	for _, t := range r {
		if which == t.Label {
			return t, true
		}
	}
	return RelationshipType{}, false
}

// ProviderType is one entry of the provider organization-type reference list
// used for other-provider records.
type ProviderType struct {
	ID    int    `json:"id"`
	Label string `json:"type"`
}

// ProviderTypes allows lookup by numeric ID or label.
type ProviderTypes []ProviderType

// Get resolves a provider-type designator: numeric ID or label.
func (p ProviderTypes) Get(which string) (ProviderType, bool) {
	which = strings.TrimSpace(which)
	if id, err := strconv.Atoi(which); err == nil {
		for _, t := range p {
			if t.ID == id {
				return t, true
			}
		}
		return ProviderType{}, false
	}
	for _, t := range p {
		if which == t.Label {
			return t, true
		}
	}
	return ProviderType{}, false
}
