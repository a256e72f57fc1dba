package institution

import (
	"fmt"

	"github.com/hei-registry/registrar/internal/levels"
)

// CanonicalInstitution is the normalized institution record, ready for
// submission to the registry. It is built once per input row and is immutable
// afterwards, except for the registry ID assigned after a successful
// submission.
type CanonicalInstitution struct {
	NamePrimary         string          `json:"name_primary"`
	Names               []NameBlock     `json:"names"`
	Countries           []LocationEntry `json:"countries"`
	Flags               []string        `json:"flags"`
	WebsiteLink         string          `json:"website_link"`
	FoundingDate        string          `json:"founding_date,omitempty"`
	ClosingDate         string          `json:"closing_date,omitempty"`
	Identifiers         []Identifier    `json:"identifiers,omitempty"`
	HierarchicalParent  []ParentRef     `json:"hierarchical_parent,omitempty"`
	QFEHEALevels        levels.Set      `json:"qf_ehea_levels"`
	IsOtherProvider     bool            `json:"is_other_provider"`
	OrganizationType    int             `json:"organization_type,omitempty"`
	SourceOfInformation string          `json:"source_of_information,omitempty"`

	// RegistryID is assigned by the registry after submission, e.g. "REG0042".
	RegistryID string `json:"registry_id,omitempty"`
}

// NameBlock carries the primary name variants of an institution.
type NameBlock struct {
	NameOfficial               string            `json:"name_official"`
	NameEnglish                string            `json:"name_english,omitempty"`
	NameOfficialTransliterated string            `json:"name_official_transliterated,omitempty"`
	Acronym                    string            `json:"acronym,omitempty"`
	AlternativeNames           []AlternativeName `json:"alternative_names,omitempty"`
}

// AlternativeName is one additional name version.
type AlternativeName struct {
	Name string `json:"name"`
}

// LocationEntry references a country (by reference-list ID) with an optional
// city and coordinates. The first entry of a record is verified; locations
// from other_location entries are not.
type LocationEntry struct {
	Country         int     `json:"country"`
	City            string  `json:"city,omitempty"`
	Latitude        float64 `json:"lat,omitempty"`
	Longitude       float64 `json:"long,omitempty"`
	CountryVerified bool    `json:"country_verified"`
}

// Identifier is an external identifier with its resource label and optional
// issuing agency.
type Identifier struct {
	Identifier string `json:"identifier"`
	Resource   string `json:"resource,omitempty"`
	Agency     string `json:"agency,omitempty"`
}

// ParentRef references a hierarchical parent institution.
type ParentRef struct {
	Institution      int `json:"institution"`
	RelationshipType int `json:"relationship_type,omitempty"`
}

// Known is the read-only view of an already-registered institution, as
// exposed by the registry snapshot and the name search.
type Known struct {
	ID          int    `json:"id"`
	RegistryID  string `json:"registry_id"`
	NamePrimary string `json:"name_primary"`
	WebsiteLink string `json:"website_link"`
}

// Signal names the matching signal that produced a duplicate candidate.
type Signal string

const (
	SignalDomain Signal = "domain"
	SignalName   Signal = "name"
)

// DuplicateCandidate flags an existing institution as possibly the same
// real-world entity as the incoming record. Candidates are advisory; they
// never block creation.
type DuplicateCandidate struct {
	Signal      Signal
	Institution Known
}

func (c DuplicateCandidate) String() string {
	return fmt.Sprintf("possible duplicate (%s match): %s %s [%s]",
		c.Signal, c.Institution.RegistryID, c.Institution.NamePrimary, c.Institution.WebsiteLink)
}

// WarningKind classifies non-fatal advisories raised during normalization.
type WarningKind string

const (
	WarnDuplicateName               WarningKind = "duplicate_name"
	WarnTransliterationUnavailable  WarningKind = "transliteration_unavailable"
	WarnIdentifierAgencyAndResource WarningKind = "identifier_agency_and_resource"
	WarnRedirectFollowed            WarningKind = "redirect_followed"
	WarnURLUnreachable              WarningKind = "url_unreachable"
	WarnLevelIgnored                WarningKind = "level_ignored"
)

// Warning is a non-fatal advisory attached to a successful normalization.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// Result is the outcome of a successful normalization: the canonical record
// plus the accumulated advisories.
type Result struct {
	Institution *CanonicalInstitution
	Warnings    []Warning
	Candidates  []DuplicateCandidate
}
