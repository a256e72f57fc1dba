package institution

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hei-registry/registrar/internal/dataerr"
	"github.com/hei-registry/registrar/internal/levels"
	"github.com/hei-registry/registrar/internal/refdata"
	"github.com/hei-registry/registrar/internal/webdomain"
)

// Normalization errors. Each is fatal for the record being normalized only.
var (
	ErrMissingRequiredField      = dataerr.New("institution must have an official name and a website")
	ErrMissingCountry            = dataerr.New("country needs to be specified")
	ErrUnknownCountry            = dataerr.New("unknown country")
	ErrMalformedDate             = dataerr.New("malformed date")
	ErrMalformedCoordinate       = dataerr.New("malformed coordinate")
	ErrIdentifierResourceMissing = dataerr.New("identifier needs to have an agency ID or a resource")
	ErrMalformedParentID         = dataerr.New("malformed parent ID")
	ErrUnknownRelationshipType   = dataerr.New("unknown relationship type")
	ErrUnknownProviderType       = dataerr.New("unknown type of provider")
)

// RedirectResolverFunc resolves a URL through its redirects and returns the
// final URL. An error means the URL was unreachable; normalization then falls
// back to the statically normalized form.
type RedirectResolverFunc func(url string) (string, error)

// TransliterateFunc romanizes a name for the given two-letter language pair.
type TransliterateFunc func(name, langPair string) (string, error)

// Normalizer turns institution inputs into canonical records. All reference
// lists and collaborators are injected; the Normalizer itself performs no
// network writes.
type Normalizer struct {
	Countries         refdata.Countries
	Levels            levels.List
	RelationshipTypes refdata.RelationshipTypes
	ProviderTypes     refdata.ProviderTypes

	// Index surfaces duplicate candidates by canonical domain. Optional.
	Index *DomainIndex
	// SearchByName surfaces duplicate candidates by name. Optional.
	SearchByName NameSearchFunc
	// ResolveRedirect, when set, takes precedence over the statically
	// normalized website URL. Optional.
	ResolveRedirect RedirectResolverFunc
	// Transliterate handles "*xx" transliteration directives. When unset,
	// the field is dropped with a warning.
	Transliterate TransliterateFunc
}

var (
	urlPattern  = regexp.MustCompile(`^([A-Za-z0-9]+://)?([^/]+)(/.*)?$`)
	datePattern = regexp.MustCompile(`^([0-9]{4})(-(?:1[012]|0?[0-9])-(?:31|30|[012]?[0-9]))?$`)
	// parent IDs are bare numbers or prefixed registry IDs like REG0042
	parentPattern = regexp.MustCompile(`^(REG)?([0-9]+)$`)
)

// Normalize validates and canonicalizes one institution input. It returns the
// canonical record with accumulated warnings and duplicate candidates, or a
// DataError describing why the record is invalid.
func (n *Normalizer) Normalize(in Input) (*Result, error) {
	nameOfficial := in.Coalesce("name_official")
	rawWebsite := in.Coalesce("website_link")
	if nameOfficial == "" || rawWebsite == "" {
		return nil, dataerr.Newf(ErrMissingRequiredField,
			"institution must have an official name and a website")
	}

	result := &Result{}
	hei := &CanonicalInstitution{
		IsOtherProvider: in.OtherProvider,
		Flags:           []string{},
		QFEHEALevels:    levels.Set{},
	}
	result.Institution = hei

	// primary name falls back from English to official
	nameEnglish := in.Coalesce("name_english")
	if nameEnglish != "" {
		hei.NamePrimary = nameEnglish
	} else {
		hei.NamePrimary = nameOfficial
	}

	website, err := n.normalizeWebsite(rawWebsite, result)
	if err != nil {
		return nil, err
	}
	hei.WebsiteLink = website

	n.queryDomain(rawWebsite, website, result)

	if err := n.resolveLocations(in, hei); err != nil {
		return nil, err
	}

	if err := n.buildNames(in, hei, result); err != nil {
		return nil, err
	}

	if err := n.addDates(in, hei); err != nil {
		return nil, err
	}
	if err := n.addIdentifier(in, hei, result); err != nil {
		return nil, err
	}
	if err := n.addParent(in, hei); err != nil {
		return nil, err
	}
	if err := n.addProviderType(in, hei); err != nil {
		return nil, err
	}

	if description := in.Coalesce("qf_ehea_levels", "qf_ehea_level"); description != "" {
		set, ignored, err := levels.ParseSet(n.Levels, description, false)
		if err != nil {
			return nil, err
		}
		hei.QFEHEALevels = set
		for _, token := range ignored {
			warn(result, WarnLevelIgnored,
				fmt.Sprintf("[%s]: QF-EHEA level not recognised, ignored", token))
		}
	}

	if source := in.Coalesce("source_information"); source != "" {
		hei.SourceOfInformation = source
	}

	return result, nil
}

// normalizeWebsite applies the static normalization (default scheme,
// lower-cased scheme and host) and, when a redirect resolver is available,
// adopts the final resolved URL. Connection failures fall back to the static
// form without failing the record.
func (n *Normalizer) normalizeWebsite(raw string, result *Result) (string, error) {
	m := urlPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil || m[2] == "" {
		return "", dataerr.Newf(webdomain.ErrInvalidURL, "[%s] is not a valid http/https URL", raw)
	}
	scheme := strings.ToLower(m[1])
	if scheme == "" {
		scheme = "http://"
	}
	path := m[3]
	if path == "" {
		path = "/"
	}
	url := scheme + strings.ToLower(m[2]) + path

	if n.ResolveRedirect == nil {
		return url, nil
	}
	resolved, err := n.ResolveRedirect(url)
	if err != nil {
		warn(result, WarnURLUnreachable, fmt.Sprintf("could not connect to URL [%s]", url))
		return url, nil
	}
	if resolved != url {
		warn(result, WarnRedirectFollowed,
			fmt.Sprintf("URL [%s] was redirected to [%s]", url, resolved))
	}
	return resolved, nil
}

// queryDomain surfaces domain-signal duplicate candidates for the raw and,
// when its canonical domain differs, the resolved website.
func (n *Normalizer) queryDomain(raw, final string, result *Result) {
	if n.Index == nil {
		return
	}
	for _, hit := range n.Index.Query(raw) {
		result.Candidates = append(result.Candidates, DuplicateCandidate{Signal: SignalDomain, Institution: hit})
	}
	rawDomain, rawErr := webdomain.CoreDomain(raw)
	finalDomain, finalErr := webdomain.CoreDomain(final)
	if rawErr == nil && finalErr == nil && rawDomain == finalDomain {
		return
	}
	for _, hit := range n.Index.Query(final) {
		result.Candidates = append(result.Candidates, DuplicateCandidate{Signal: SignalDomain, Institution: hit})
	}
}

// resolveLocations resolves the primary country plus any other-location
// entries. Every location independently requires a resolvable country.
func (n *Normalizer) resolveLocations(in Input, hei *CanonicalInstitution) error {
	designator := in.Coalesce("country_id", "country_iso", "country")
	if designator == "" {
		return dataerr.Newf(ErrMissingCountry, "country needs to be specified")
	}
	country, ok := n.Countries.Get(designator)
	if !ok {
		return dataerr.Newf(ErrUnknownCountry, "unknown country [%s]", designator)
	}

	primary := LocationEntry{Country: country.ID, CountryVerified: true}
	if city := in.Coalesce("city"); city != "" {
		primary.City = city
	}
	var err error
	if primary.Latitude, err = parseCoordinate(in.Coalesce("latitude")); err != nil {
		return err
	}
	if primary.Longitude, err = parseCoordinate(in.Coalesce("longitude")); err != nil {
		return err
	}
	hei.Countries = []LocationEntry{primary}

	for _, loc := range in.OtherLocations {
		if strings.TrimSpace(loc.Country) == "" {
			return dataerr.Newf(ErrMissingCountry, "country needs to be specified for each location")
		}
		country, ok := n.Countries.Get(loc.Country)
		if !ok {
			return dataerr.Newf(ErrUnknownCountry, "unknown country [%s]", strings.TrimSpace(loc.Country))
		}
		entry := LocationEntry{Country: country.ID, City: strings.TrimSpace(loc.City)}
		if entry.Latitude, err = parseCoordinate(loc.Latitude); err != nil {
			return err
		}
		if entry.Longitude, err = parseCoordinate(loc.Longitude); err != nil {
			return err
		}
		hei.Countries = append(hei.Countries, entry)
	}
	return nil
}

func parseCoordinate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, dataerr.Newf(ErrMalformedCoordinate, "malformed coordinate [%s]", value)
	}
	return f, nil
}

// buildNames assembles the name block, collapsing redundant variants with a
// DuplicateNameWarning each, and surfaces name-signal duplicate candidates.
func (n *Normalizer) buildNames(in Input, hei *CanonicalInstitution, result *Result) error {
	nameOfficial := in.Coalesce("name_official")
	nameEnglish := in.Coalesce("name_english")
	nameVersion := in.Coalesce("name_version")

	block := NameBlock{NameOfficial: nameOfficial}

	if nameEnglish != "" && nameEnglish == nameOfficial {
		warn(result, WarnDuplicateName,
			fmt.Sprintf("DUPLICATE NAME: English name [%s] identical to official name", nameEnglish))
		nameEnglish = ""
	}
	if nameVersion != "" && nameVersion == nameOfficial {
		warn(result, WarnDuplicateName,
			fmt.Sprintf("DUPLICATE NAME: name version [%s] identical to official name", nameVersion))
		nameVersion = ""
	}
	if nameVersion != "" && nameVersion == nameEnglish {
		warn(result, WarnDuplicateName,
			fmt.Sprintf("DUPLICATE NAME: name version [%s] identical to English name", nameVersion))
		nameVersion = ""
	}

	if err := n.queryName(nameOfficial, result); err != nil {
		return err
	}
	if nameEnglish != "" {
		if err := n.queryName(nameEnglish, result); err != nil {
			return err
		}
		block.NameEnglish = nameEnglish
	}

	if err := n.addTransliteration(in, &block, result); err != nil {
		return err
	}

	if nameVersion != "" {
		if err := n.queryName(nameVersion, result); err != nil {
			return err
		}
		block.AlternativeNames = []AlternativeName{{Name: nameVersion}}
	}
	if acronym := in.Coalesce("acronym"); acronym != "" {
		block.Acronym = acronym
	}

	hei.Names = []NameBlock{block}
	return nil
}

// addTransliteration handles the name_official_transliterated field. A value
// of the form "*xx" is a directive to transliterate the official name for
// language pair xx; anything else is taken literally.
func (n *Normalizer) addTransliteration(in Input, block *NameBlock, result *Result) error {
	value := in.Coalesce("name_official_transliterated")
	if value == "" {
		return nil
	}
	if value[0] != '*' {
		block.NameOfficialTransliterated = value
		return nil
	}
	if len(value) < 3 {
		warn(result, WarnTransliterationUnavailable,
			fmt.Sprintf("transliteration directive [%s] lacks a language pair", value))
		return nil
	}
	langPair := value[1:3]
	if n.Transliterate == nil {
		warn(result, WarnTransliterationUnavailable,
			fmt.Sprintf("transliteration to [%s] requested, but no transliterator available", langPair))
		return nil
	}
	transliterated, err := n.Transliterate(block.NameOfficial, langPair)
	if err != nil {
		warn(result, WarnTransliterationUnavailable,
			fmt.Sprintf("transliteration to [%s] failed: %v", langPair, err))
		return nil
	}
	block.NameOfficialTransliterated = transliterated
	return nil
}

func (n *Normalizer) queryName(name string, result *Result) error {
	if n.SearchByName == nil {
		return nil
	}
	hits, err := n.SearchByName(name)
	if err != nil {
		return fmt.Errorf("name search for [%s] failed: %w", name, err)
	}
	for _, hit := range hits {
		result.Candidates = append(result.Candidates, DuplicateCandidate{Signal: SignalName, Institution: hit})
	}
	return nil
}

// addDates validates founding and closing dates. Year-only inputs default to
// the start resp. end of the year.
func (n *Normalizer) addDates(in Input, hei *CanonicalInstitution) error {
	if value := in.Coalesce("founding_date"); value != "" {
		date, err := normalizeDate(value, "-01-01", "founding_date")
		if err != nil {
			return err
		}
		hei.FoundingDate = date
	}
	if value := in.Coalesce("closing_date"); value != "" {
		date, err := normalizeDate(value, "-12-31", "closing_date")
		if err != nil {
			return err
		}
		hei.ClosingDate = date
	}
	return nil
}

func normalizeDate(value, yearDefault, field string) (string, error) {
	m := datePattern.FindStringSubmatch(value)
	if m == nil {
		return "", dataerr.Newf(ErrMalformedDate, "malformed %s: [%s]", field, value)
	}
	if m[2] == "" {
		return m[1] + yearDefault, nil
	}
	return m[1] + m[2], nil
}

// addIdentifier processes the single optional identifier. It needs either an
// issuing agency or an explicit resource label; with only an agency, the
// resource defaults to "local identifier".
func (n *Normalizer) addIdentifier(in Input, hei *CanonicalInstitution, result *Result) error {
	value := in.Coalesce("identifier")
	if value == "" {
		return nil
	}
	hasResource := in.Has("identifier_resource")
	hasAgency := in.Has("agency_id")
	if !hasResource && !hasAgency {
		return dataerr.Newf(ErrIdentifierResourceMissing,
			"identifier needs to have an agency ID or a resource")
	}
	if hasResource && hasAgency {
		warn(result, WarnIdentifierAgencyAndResource,
			fmt.Sprintf("identifier [%s] should not have both agency_id AND a resource", value))
	}

	identifier := Identifier{Identifier: value}
	if hasResource {
		identifier.Resource = in.Coalesce("identifier_resource")
	} else {
		identifier.Resource = "local identifier"
	}
	if hasAgency {
		identifier.Agency = in.Coalesce("agency_id")
	}
	hei.Identifiers = []Identifier{identifier}
	return nil
}

// addParent processes the optional hierarchical-parent reference: a bare
// numeric ID or a prefixed registry ID, with an optional relationship type
// resolved against the reference list.
func (n *Normalizer) addParent(in Input, hei *CanonicalInstitution) error {
	value := in.Coalesce("parent_id", "parent_registry_id")
	if value == "" {
		return nil
	}
	m := parentPattern.FindStringSubmatch(strings.ToUpper(value))
	if m == nil {
		return dataerr.Newf(ErrMalformedParentID, "malformed parent_id: [%s]", value)
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return dataerr.Newf(ErrMalformedParentID, "malformed parent_id: [%s]", value)
	}

	parent := ParentRef{Institution: id}
	if which := in.Coalesce("parent_type"); which != "" {
		relType, ok := n.RelationshipTypes.Get(which)
		if !ok {
			return dataerr.Newf(ErrUnknownRelationshipType, "unknown parent_type: [%s]", which)
		}
		parent.RelationshipType = relType.ID
	}
	hei.HierarchicalParent = []ParentRef{parent}
	return nil
}

// addProviderType resolves the optional provider organization type of
// other-provider records.
func (n *Normalizer) addProviderType(in Input, hei *CanonicalInstitution) error {
	which := in.Coalesce("type_provider")
	if which == "" {
		return nil
	}
	providerType, ok := n.ProviderTypes.Get(which)
	if !ok {
		return dataerr.Newf(ErrUnknownProviderType, "unknown type of provider [%s]", which)
	}
	hei.OrganizationType = providerType.ID
	return nil
}

func warn(result *Result, kind WarningKind, message string) {
	result.Warnings = append(result.Warnings, Warning{Kind: kind, Message: message})
}
