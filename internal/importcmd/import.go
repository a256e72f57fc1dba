// Package importcmd implements the "registrar import" commands: reading
// nested CSV files, normalizing institution records and submitting them to
// the registry.
package importcmd

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hei-registry/registrar/internal/dataerr"
	"github.com/hei-registry/registrar/internal/dataset"
	"github.com/hei-registry/registrar/internal/institution"
	"github.com/hei-registry/registrar/internal/nestedcsv"
	"github.com/hei-registry/registrar/internal/registry"
	"github.com/hei-registry/registrar/internal/translit"
)

type importOptions struct {
	base          string
	token         string
	snapshotPath  string
	outputPath    string
	direct        bool
	dryRun        bool
	ignore        bool
	otherProvider bool
	verbose       bool
}

// NewInstitutionsCmd creates the institutions import command.
func NewInstitutionsCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "institutions FILE",
		Short: "Import institution records from a nested CSV file",
		Long: `Reads institution records from a CSV file whose headers may use nested
field paths (e.g. "other_location[1].country"), normalizes each record and
checks it against the registry for probable duplicates before submission.

Duplicate candidates are advisory: they are reported for human review and
never block creation.`,
		Example: `  # Validate a file without submitting anything
  registrar import institutions heis.csv --dry-run

  # Import, skipping invalid rows, writing assigned IDs to a copy
  registrar import institutions heis.csv --ignore --output imported.csv

  # Build the duplicate index from an offline snapshot
  registrar import institutions heis.csv --snapshot institutions.parquet --dry-run`,
		Args: cobra.ExactArgs(1),
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
			return executeImport(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "Base URL of the registry API (default: $REGISTRAR_BASE)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token for the registry API (default: $REGISTRAR_TOKEN)")
	cmd.Flags().StringVar(&opts.snapshotPath, "snapshot", "", "Build the duplicate index from an offline snapshot file (.jsonl or .parquet) instead of the API")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write a CSV copy with the assigned registry IDs of newly added institutions")
	cmd.Flags().BoolVar(&opts.direct, "direct", false, "Post each institution record immediately instead of queueing the whole file first")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Normalize and check only, do not submit anything")
	cmd.Flags().BoolVarP(&opts.ignore, "ignore", "i", false, "Skip rows with data errors instead of aborting")
	cmd.Flags().BoolVar(&opts.otherProvider, "other-provider", false, "Import records as other providers (multiple locations, provider type)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Increase output verbosity")

	return cmd
}

type queuedRecord struct {
	line   int
	values []string
	result *institution.Result
}

func executeImport(path string, opts importOptions) error {
	setupLogging(opts.verbose)

	client := registry.NewClient(opts.base, opts.token)
	normalizer, err := buildNormalizer(client, opts)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}
	builder, err := nestedcsv.NewBuilder(headers)
	if err != nil {
		return err
	}

	var output *outputWriter
	if opts.outputPath != "" {
		output, err = newOutputWriter(opts.outputPath, headers)
		if err != nil {
			return err
		}
		defer output.Close()
	}

	var queue []queuedRecord
	line := 1
	skipped := 0

	for {
		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		result, err := normalizeRow(builder, normalizer, values, opts.otherProvider)
		if err != nil {
			var de *dataerr.Error
			if errors.As(err, &de) && opts.ignore {
				slog.Warn("Skipping row with data error", "line", line, "err", err)
				skipped++
				continue
			}
			return fmt.Errorf("row %d: %w", line, err)
		}

		report(line, result)

		if opts.direct && !opts.dryRun {
			if err := submit(client, result.Institution); err != nil {
				return fmt.Errorf("row %d: %w", line, err)
			}
			if output != nil {
				if err := output.Write(result.Institution.RegistryID, values); err != nil {
					return err
				}
			}
			continue
		}
		queue = append(queue, queuedRecord{line: line, values: values, result: result})
		slog.Info("Queued institution", "line", line, "name", result.Institution.NamePrimary)
	}

	if skipped > 0 {
		slog.Info("Rows skipped due to data errors", "skipped", skipped)
	}
	if opts.dryRun || opts.direct {
		return nil
	}
	if len(queue) == 0 {
		slog.Info("Nothing to submit")
		return nil
	}

	if !confirm(fmt.Sprintf("Commit %d institution(s)?", len(queue))) {
		slog.Info("Submission cancelled")
		return nil
	}
	for _, record := range queue {
		if err := submit(client, record.result.Institution); err != nil {
			return fmt.Errorf("row %d: %w", record.line, err)
		}
		if output != nil {
			if err := output.Write(record.result.Institution.RegistryID, record.values); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildNormalizer wires the normalizer with reference lists and collaborators
// from the registry API, optionally building the duplicate index from an
// offline snapshot file.
func buildNormalizer(client *registry.Client, opts importOptions) (*institution.Normalizer, error) {
	countries, err := client.Countries()
	if err != nil {
		return nil, fmt.Errorf("failed to load country reference list: %w", err)
	}
	levelList, err := client.QFEHEALevels()
	if err != nil {
		return nil, fmt.Errorf("failed to load QF-EHEA level reference list: %w", err)
	}
	relTypes, err := client.RelationshipTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to load relationship-type reference list: %w", err)
	}
	providerTypes, err := client.ProviderTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to load provider-type reference list: %w", err)
	}

	var snapshot []institution.Known
	if opts.snapshotPath != "" {
		snapshot, err = dataset.NewLoader(opts.snapshotPath).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load institution snapshot: %w", err)
		}
	} else {
		snapshot, err = client.InstitutionSnapshot()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch institution snapshot: %w", err)
		}
	}
	index := institution.NewDomainIndex(snapshot)
	slog.Info("Duplicate index ready", "institutions", len(snapshot), "domains", index.Len())

	return &institution.Normalizer{
		Countries:         countries,
		Levels:            levelList,
		RelationshipTypes: relTypes,
		ProviderTypes:     providerTypes,
		Index:             index,
		SearchByName:      client.SearchInstitutions,
		ResolveRedirect:   client.ResolveRedirect,
		Transliterate:     translit.Romanize,
	}, nil
}

func normalizeRow(builder *nestedcsv.Builder, normalizer *institution.Normalizer, values []string, otherProvider bool) (*institution.Result, error) {
	record, err := builder.Row(values)
	if err != nil {
		return nil, err
	}
	input, err := institution.FromRecord(record)
	if err != nil {
		return nil, err
	}
	input.OtherProvider = otherProvider
	return normalizer.Normalize(input)
}

func report(line int, result *institution.Result) {
	slog.Info("Normalized institution",
		"line", line,
		"name", result.Institution.NamePrimary,
		"website", result.Institution.WebsiteLink,
		"levels", result.Institution.QFEHEALevels.String())
	for _, warning := range result.Warnings {
		slog.Warn(warning.Message, "line", line, "kind", string(warning.Kind))
	}
	for _, candidate := range result.Candidates {
		slog.Warn(candidate.String(), "line", line)
	}
}

func submit(client *registry.Client, hei *institution.CanonicalInstitution) error {
	registryID, err := client.CreateInstitution(hei)
	if err != nil {
		return fmt.Errorf("failed to submit institution: %w", err)
	}
	hei.RegistryID = registryID
	slog.Info("Institution created", "registry_id", registryID, "name", hei.NamePrimary)
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] > ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "Y")
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// outputWriter writes the input rows back out with the assigned registry ID
// prepended, so newly created IDs can be fed into follow-up spreadsheets.
type outputWriter struct {
	file   *os.File
	writer *csv.Writer
}

func newOutputWriter(path string, headers []string) (*outputWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(append([]string{"registry_id"}, headers...)); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write output header: %w", err)
	}
	return &outputWriter{file: file, writer: writer}, nil
}

func (w *outputWriter) Write(registryID string, values []string) error {
	if err := w.writer.Write(append([]string{registryID}, values...)); err != nil {
		return fmt.Errorf("failed to write output row: %w", err)
	}
	return nil
}

func (w *outputWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
