// Package reports groups quality-assurance reports into duplicate-candidate
// sets. Reports whose semantically-identifying fields collapse onto the same
// canonical fingerprint are considered probable duplicates of each other.
package reports

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report is one quality-assurance report record as exposed by the registry's
// browse endpoint. The detail endpoint fills the same structure with a few
// extra fields (local identifier, files, flag).
type Report struct {
	ID              int                 `json:"id"`
	AgencyAcronym   string              `json:"agency_acronym"`
	LocalIdentifier string              `json:"local_identifier"`
	ActivityType    string              `json:"agency_esg_activity__type"`
	Activity        string              `json:"agency_esg_activity"`
	Institutions    []ReportInstitution `json:"institutions"`
	Programmes      []Programme         `json:"programmes"`
	ValidFrom       string              `json:"valid_from"`
	ValidTo         *string             `json:"valid_to"`
	Status          string              `json:"status"`
	Decision        string              `json:"decision"`
	Crossborder     bool                `json:"crossborder"`
	Flag            string              `json:"flag"`
	ReportFiles     []ReportFile        `json:"report_files"`
}

// ReportInstitution references an institution covered by a report.
type ReportInstitution struct {
	ID          int    `json:"id"`
	RegistryID  string `json:"registry_id"`
	NamePrimary string `json:"name_primary"`
}

// Programme is one programme covered by a report.
type Programme struct {
	NamePrimary    string          `json:"name_primary"`
	QFEHEALevel    string          `json:"qf_ehea_level"`
	NQFLevel       string          `json:"nqf_level"`
	ProgrammeType  string          `json:"programme_type"`
	WorkloadECTS   json.Number     `json:"workload_ects"`
	ProgrammeNames []ProgrammeName `json:"programme_names"`
}

// ProgrammeName is one name/qualification pair of a programme.
type ProgrammeName struct {
	Name          string `json:"name"`
	Qualification string `json:"qualification"`
}

// ReportFile is one file attached to a report.
type ReportFile struct {
	File        string `json:"file"`
	DisplayName string `json:"file_display_name"`
}

// InstitutionsDisplay joins the covered institutions for CSV output.
func (r *Report) InstitutionsDisplay() string {
	parts := make([]string, len(r.Institutions))
	for i, hei := range r.Institutions {
		parts[i] = fmt.Sprintf("%s %s", hei.RegistryID, hei.NamePrimary)
	}
	return strings.Join(parts, " | ")
}

// ProgrammeNamesDisplay joins programme names, name variants separated by "/".
func (r *Report) ProgrammeNamesDisplay() string {
	parts := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		names := make([]string, len(p.ProgrammeNames))
		for j, pn := range p.ProgrammeNames {
			names[j] = pn.Name
		}
		parts[i] = strings.Join(names, "/")
	}
	return strings.Join(parts, " | ")
}

// QualificationsDisplay joins programme qualifications the same way.
func (r *Report) QualificationsDisplay() string {
	parts := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		quals := make([]string, len(p.ProgrammeNames))
		for j, pn := range p.ProgrammeNames {
			quals[j] = pn.Qualification
		}
		parts[i] = strings.Join(quals, "/")
	}
	return strings.Join(parts, " | ")
}

// LevelsDisplay joins "qf_ehea_level - nqf_level" pairs per programme.
func (r *Report) LevelsDisplay() string {
	parts := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		parts[i] = fmt.Sprintf("%s - %s", p.QFEHEALevel, p.NQFLevel)
	}
	return strings.Join(parts, " | ")
}

// TypesDisplay joins programme types.
func (r *Report) TypesDisplay() string {
	parts := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		parts[i] = p.ProgrammeType
	}
	return strings.Join(parts, " | ")
}

// WorkloadsDisplay joins programme workloads.
func (r *Report) WorkloadsDisplay() string {
	parts := make([]string, len(r.Programmes))
	for i, p := range r.Programmes {
		parts[i] = p.WorkloadECTS.String()
	}
	return strings.Join(parts, " | ")
}

// FilesDisplay joins report file URLs, marking files without one.
func (r *Report) FilesDisplay() string {
	parts := make([]string, len(r.ReportFiles))
	for i, f := range r.ReportFiles {
		if f.File != "" {
			parts[i] = f.File
		} else {
			parts[i] = fmt.Sprintf("[FILE MISSING: %s]", f.DisplayName)
		}
	}
	return strings.Join(parts, " | ")
}

// ValidToDisplay renders the valid-to date, empty when absent.
func (r *Report) ValidToDisplay() string {
	if r.ValidTo == nil {
		return ""
	}
	return *r.ValidTo
}
