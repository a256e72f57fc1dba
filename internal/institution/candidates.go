package institution

import (
	"log/slog"

	"github.com/hei-registry/registrar/internal/webdomain"
)

// DomainIndex maps canonical internet domains to the known institutions using
// them. It is built once per run from a full institution snapshot and is
// read-only afterwards, so it may be shared freely across goroutines.
type DomainIndex struct {
	domains map[string][]Known
}

// NewDomainIndex builds the index from a snapshot of known institutions.
// Institutions whose website yields no canonical domain are skipped.
func NewDomainIndex(snapshot []Known) *DomainIndex {
	index := &DomainIndex{domains: make(map[string][]Known)}
	skipped := 0
	for _, hei := range snapshot {
		if hei.WebsiteLink == "" {
			continue
		}
		domain, err := webdomain.CoreDomain(hei.WebsiteLink)
		if err != nil {
			skipped++
			continue
		}
		index.domains[domain] = append(index.domains[domain], hei)
	}
	if skipped > 0 {
		slog.Debug("Domain index built with unparseable websites skipped",
			"domains", len(index.domains), "skipped", skipped)
	}
	return index
}

// Query returns the known institutions sharing the canonical domain of the
// given website, or nil when the domain is unknown or not extractable.
func (x *DomainIndex) Query(website string) []Known {
	domain, err := webdomain.CoreDomain(website)
	if err != nil {
		return nil
	}
	return x.domains[domain]
}

// Len returns the number of distinct canonical domains in the index.
func (x *DomainIndex) Len() int {
	return len(x.domains)
}

// NameSearchFunc looks up known institutions matching a name query. It is an
// external full-text search, treated as a black box.
type NameSearchFunc func(query string) ([]Known, error)
