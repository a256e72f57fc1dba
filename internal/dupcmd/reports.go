// Package dupcmd implements the "registrar duplicates" commands: scanning
// the full report catalogue for duplicate-candidate sets and rendering them
// for human review.
package dupcmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hei-registry/registrar/internal/registry"
	"github.com/hei-registry/registrar/internal/reports"
)

// defaultPageSize matches the largest page the registry API serves.
const defaultPageSize = 2500

type reportsOptions struct {
	base        string
	token       string
	agency      string
	summaryPath string
	pageSize    int
	dryRun      bool
	verbose     bool
}

// NewReportsCmd creates the duplicate-reports scan command.
func NewReportsCmd() *cobra.Command {
	var opts reportsOptions

	cmd := &cobra.Command{
		Use:   "reports [PATH]",
		Short: "Scan the report catalogue for probable duplicates",
		Long: `Pages through the full report catalogue, fingerprints every report and
groups reports with identical fingerprints into duplicate-candidate sets.

For each agency with duplicates a CSV file is written to PATH, one row per
report in a set, for human review. With --dry-run only statistics are
reported. An interrupted scan still reports the sets found so far.`,
		Example: `  # Write one CSV per agency with duplicate candidates
  registrar duplicates reports ./out

  # Statistics only, single agency
  registrar duplicates reports --dry-run --agency ACQUIN`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.base == "" {
				opts.base = os.Getenv("REGISTRAR_BASE")
			}
			if opts.token == "" {
				opts.token = os.Getenv("REGISTRAR_TOKEN")
			}
			if opts.base == "" {
				return fmt.Errorf("registry base URL must be passed via --base or the REGISTRAR_BASE environment variable")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" && !opts.dryRun {
				return fmt.Errorf("either provide a path to save CSV files or use --dry-run")
			}
			return executeReports(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "Base URL of the registry API (default: $REGISTRAR_BASE)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token for the registry API (default: $REGISTRAR_TOKEN)")
	cmd.Flags().StringVarP(&opts.agency, "agency", "a", "", "Check a specific agency only")
	cmd.Flags().StringVar(&opts.summaryPath, "summary", "", "Write a YAML summary of the scan to this file")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", defaultPageSize, "Number of reports fetched per page")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Do not save CSV files, simply output statistics")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Increase output verbosity")

	return cmd
}

func executeReports(ctx context.Context, path string, opts reportsOptions) error {
	setupLogging(opts.verbose)

	client := registry.NewClient(opts.base, opts.token)
	grouper := reports.NewGrouper()

	fetch := func(offset, limit int) (int, []*reports.Report, error) {
		return client.BrowseReports(offset, limit, opts.agency)
	}
	if err := grouper.Scan(ctx, fetch, opts.pageSize); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		// partial results are still meaningful
		slog.Warn("Scan interrupted, reporting duplicate sets found so far")
	}

	totalSets := 0
	totalDuplicates := 0
	summary := scanSummary{
		GeneratedAt:  time.Now().Format(time.RFC3339),
		ReportsRead:  grouper.Read(),
		SkippedBad:   grouper.Skipped(),
		AgencyFilter: opts.agency,
	}

	for _, agency := range grouper.Agencies() {
		sets := grouper.DuplicateSets(agency)
		if len(sets) == 0 {
			continue
		}

		agencySets := 0
		agencyDuplicates := 0
		for _, set := range sets {
			agencySets++
			agencyDuplicates += len(set.ReportIDs)
			slog.Debug("Duplicate set", "agency", agency, "fingerprint", set.Fingerprint, "report_ids", set.ReportIDs)
		}

		if opts.dryRun {
			slog.Info("Agency has duplicate candidates", "agency", agency, "sets", agencySets, "reports", agencyDuplicates)
		} else {
			target := filepath.Join(path, agency+".csv")
			slog.Info("Writing duplicate candidates", "agency", agency, "target", target)
			if err := writeAgencyCSV(client, target, sets); err != nil {
				return err
			}
		}

		totalSets += agencySets
		totalDuplicates += agencyDuplicates
		summary.Agencies = append(summary.Agencies, agencySummary{
			Acronym: agency,
			Sets:    agencySets,
			Reports: agencyDuplicates,
		})
	}

	slog.Info("Scan finished",
		"reports", grouper.Read(),
		"skipped", grouper.Skipped(),
		"duplicate_sets", totalSets,
		"duplicate_reports", totalDuplicates)

	if opts.summaryPath != "" {
		summary.DuplicateSets = totalSets
		summary.DuplicateReports = totalDuplicates
		if err := writeSummary(opts.summaryPath, summary); err != nil {
			return err
		}
	}
	return nil
}

var csvHeader = []string{
	"fingerprint",
	"id",
	"agency_acronym",
	"local_identifier",
	"agency_esg_activity__type",
	"agency_esg_activity",
	"institutions",
	"programme__names",
	"programme__level",
	"programme__qualifications",
	"programme__type",
	"programme__workload_ects",
	"valid_from",
	"valid_to",
	"status",
	"decision",
	"crossborder",
	"files",
	"flag",
}

// writeAgencyCSV writes one row per report in a duplicate set, fetching the
// full detail record for the derived display columns.
func writeAgencyCSV(client *registry.Client, target string, sets []reports.DuplicateSet) error {
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, set := range sets {
		for _, reportID := range set.ReportIDs {
			report, err := client.Report(reportID)
			if err != nil {
				return fmt.Errorf("failed to fetch report %d: %w", reportID, err)
			}
			row := []string{
				set.Fingerprint,
				fmt.Sprintf("%d", report.ID),
				report.AgencyAcronym,
				report.LocalIdentifier,
				report.ActivityType,
				report.Activity,
				report.InstitutionsDisplay(),
				report.ProgrammeNamesDisplay(),
				report.LevelsDisplay(),
				report.QualificationsDisplay(),
				report.TypesDisplay(),
				report.WorkloadsDisplay(),
				report.ValidFrom,
				report.ValidToDisplay(),
				report.Status,
				report.Decision,
				fmt.Sprintf("%t", report.Crossborder),
				report.FilesDisplay(),
				report.Flag,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}
	return nil
}

type scanSummary struct {
	GeneratedAt      string          `yaml:"generated_at"`
	AgencyFilter     string          `yaml:"agency_filter,omitempty"`
	ReportsRead      int             `yaml:"reports_read"`
	SkippedBad       int             `yaml:"skipped_malformed"`
	DuplicateSets    int             `yaml:"duplicate_sets"`
	DuplicateReports int             `yaml:"duplicate_reports"`
	Agencies         []agencySummary `yaml:"agencies"`
}

type agencySummary struct {
	Acronym string `yaml:"acronym"`
	Sets    int    `yaml:"sets"`
	Reports int    `yaml:"reports"`
}

func writeSummary(path string, summary scanSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	slog.Info("Summary written", "path", path)
	return nil
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
