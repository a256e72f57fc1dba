package reports

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// Fingerprint computes the canonical fingerprint of a report: a fixed-width
// digest of the tuple (sorted institution IDs, sorted programme strings,
// activity, valid-from, valid-to-or-absent, decision). Reports with the same
// fingerprint are probable duplicates.
func Fingerprint(r *Report) (string, error) {
	instIDs := make([]int, len(r.Institutions))
	for i, hei := range r.Institutions {
		instIDs[i] = hei.ID
	}
	sort.Ints(instIDs)

	programmes := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		programmes[i] = fmt.Sprintf("%s|%s|%s|%s|%s",
			p.NamePrimary, p.QFEHEALevel, p.NQFLevel, p.ProgrammeType, p.WorkloadECTS)
	}
	sort.Strings(programmes)

	// JSON array serialization is deterministic, so the digest is stable.
	tuple := []any{instIDs, programmes, r.Activity, r.ValidFrom, r.ValidTo, r.Decision}
	serialized, err := json.Marshal(tuple)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report tuple: %w", err)
	}
	sum := md5.Sum(serialized)
	return hex.EncodeToString(sum[:]), nil
}

// DuplicateSet is one group of probable duplicate reports within an agency.
type DuplicateSet struct {
	Fingerprint string
	ReportIDs   []int
}

// Grouper accumulates report IDs by (agency, fingerprint). It holds one entry
// per distinct pair seen, so memory is bounded by the number of distinct
// reports, not by duplicate count. Individually malformed reports are logged,
// counted and skipped; they never abort a scan.
type Grouper struct {
	store   map[string]map[string]map[int]struct{}
	read    int
	skipped int
}

// NewGrouper creates an empty grouper.
func NewGrouper() *Grouper {
	return &Grouper{store: make(map[string]map[string]map[int]struct{})}
}

// Add fingerprints one report and records its ID under its agency.
func (g *Grouper) Add(r *Report) {
	g.read++
	if r.ID == 0 || r.AgencyAcronym == "" {
		slog.Warn("Skipping malformed report record", "id", r.ID, "agency", r.AgencyAcronym)
		g.skipped++
		return
	}
	fingerprint, err := Fingerprint(r)
	if err != nil {
		slog.Warn("Skipping report that could not be fingerprinted", "id", r.ID, "err", err)
		g.skipped++
		return
	}

	agency := g.store[r.AgencyAcronym]
	if agency == nil {
		agency = make(map[string]map[int]struct{})
		g.store[r.AgencyAcronym] = agency
	}
	ids := agency[fingerprint]
	if ids == nil {
		ids = make(map[int]struct{})
		agency[fingerprint] = ids
	}
	ids[r.ID] = struct{}{}
}

// Read returns the number of reports fed into the grouper.
func (g *Grouper) Read() int {
	return g.read
}

// Skipped returns the number of malformed reports that were dropped.
func (g *Grouper) Skipped() int {
	return g.skipped
}

// Agencies lists all agencies seen, sorted.
func (g *Grouper) Agencies() []string {
	agencies := make([]string, 0, len(g.store))
	for agency := range g.store {
		agencies = append(agencies, agency)
	}
	sort.Strings(agencies)
	return agencies
}

// DuplicateSets returns the groups of size >= 2 for one agency, report IDs
// sorted within each set and sets sorted by fingerprint.
func (g *Grouper) DuplicateSets(agency string) []DuplicateSet {
	var sets []DuplicateSet
	for fingerprint, ids := range g.store[agency] {
		if len(ids) < 2 {
			continue
		}
		set := DuplicateSet{Fingerprint: fingerprint, ReportIDs: make([]int, 0, len(ids))}
		for id := range ids {
			set.ReportIDs = append(set.ReportIDs, id)
		}
		sort.Ints(set.ReportIDs)
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Fingerprint < sets[j].Fingerprint })
	return sets
}

// FetchPageFunc returns one page of reports starting at offset, along with
// the total number of reports available.
type FetchPageFunc func(offset, limit int) (total int, results []*Report, err error)

// Scan drives a full paginated pass, one page at a time, feeding every report
// into the grouper. The whole input must be processed before any group is
// final, since later pages can add members to an existing group.
//
// Cancellation stops the scan between reports and returns ctx.Err(); groups
// accumulated so far remain valid and should still be reported.
func (g *Grouper) Scan(ctx context.Context, fetch FetchPageFunc, pageSize int) error {
	offset := 0
	total := 1
	for offset < total {
		slog.Info("Checking reports", "from", offset, "to", offset+pageSize-1, "of", total)
		count, page, err := fetch(offset, pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch reports at offset %d: %w", offset, err)
		}
		total = count
		offset += pageSize
		for _, r := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.Add(r)
		}
	}
	return nil
}
