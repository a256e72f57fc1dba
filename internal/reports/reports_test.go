package reports

import "testing"

func TestReportDisplays(t *testing.T) {
	validTo := "2025-08-31"
	r := &Report{
		ID: 42,
		Institutions: []ReportInstitution{
			{ID: 12, RegistryID: "REG0012", NamePrimary: "Example University"},
			{ID: 34, RegistryID: "REG0034", NamePrimary: "Example Business School"},
		},
		Programmes: []Programme{
			{
				NamePrimary:   "Physics",
				QFEHEALevel:   "second cycle",
				NQFLevel:      "7",
				ProgrammeType: "Master",
				WorkloadECTS:  "120",
				ProgrammeNames: []ProgrammeName{
					{Name: "Physics", Qualification: "MSc"},
					{Name: "Physik", Qualification: "Magister"},
				},
			},
			{
				NamePrimary:   "Biology",
				QFEHEALevel:   "first cycle",
				NQFLevel:      "6",
				ProgrammeType: "Bachelor",
				WorkloadECTS:  "180",
				ProgrammeNames: []ProgrammeName{
					{Name: "Biology", Qualification: "BSc"},
				},
			},
		},
		ValidTo: &validTo,
		ReportFiles: []ReportFile{
			{File: "https://files.example.org/report-42.pdf", DisplayName: "Report"},
			{DisplayName: "Annex"},
		},
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"institutions", r.InstitutionsDisplay(), "REG0012 Example University | REG0034 Example Business School"},
		{"programme names", r.ProgrammeNamesDisplay(), "Physics/Physik | Biology"},
		{"qualifications", r.QualificationsDisplay(), "MSc/Magister | BSc"},
		{"levels", r.LevelsDisplay(), "second cycle - 7 | first cycle - 6"},
		{"types", r.TypesDisplay(), "Master | Bachelor"},
		{"workloads", r.WorkloadsDisplay(), "120 | 180"},
		{"files", r.FilesDisplay(), "https://files.example.org/report-42.pdf | [FILE MISSING: Annex]"},
		{"valid to", r.ValidToDisplay(), "2025-08-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidToDisplayAbsent(t *testing.T) {
	r := &Report{}
	if got := r.ValidToDisplay(); got != "" {
		t.Errorf("ValidToDisplay() = %q, want empty", got)
	}
}
