// Package dataset loads offline institution snapshots (JSONL or Parquet
// exports of the registry) so the duplicate-candidate index can be built
// without network access.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/hei-registry/registrar/internal/institution"
)

// SnapshotRecord is one known institution in a snapshot file.
type SnapshotRecord struct {
	ID          int    `json:"id" parquet:"id"`
	RegistryID  string `json:"registry_id" parquet:"registry_id"`
	NamePrimary string `json:"name_primary" parquet:"name_primary"`
	WebsiteLink string `json:"website_link" parquet:"website_link"`
}

// Known converts the snapshot record into the core's read-only view.
func (r SnapshotRecord) Known() institution.Known {
	return institution.Known{
		ID:          r.ID,
		RegistryID:  r.RegistryID,
		NamePrimary: r.NamePrimary,
		WebsiteLink: r.WebsiteLink,
	}
}

// Loader handles loading of institution snapshot files.
type Loader struct {
	snapshotPath string
}

// NewLoader creates a new snapshot loader.
func NewLoader(snapshotPath string) *Loader {
	return &Loader{snapshotPath: snapshotPath}
}

// Load loads all institutions from a snapshot file (JSONL or Parquet).
func (l *Loader) Load() ([]institution.Known, error) {
	ext := strings.ToLower(filepath.Ext(l.snapshotPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// loadJSONL loads institutions from a JSONL file, one record per line.
func (l *Loader) loadJSONL() ([]institution.Known, error) {
	slog.Debug("Opening JSONL snapshot", "path", l.snapshotPath)

	file, err := os.Open(l.snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var known []institution.Known
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var record SnapshotRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		known = append(known, record.Known())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	slog.Debug("Finished reading JSONL snapshot", "institutions", len(known))

	return known, nil
}

// loadParquet loads institutions from a Parquet file.
func (l *Loader) loadParquet() ([]institution.Known, error) {
	slog.Debug("Opening Parquet snapshot", "path", l.snapshotPath)

	file, err := os.Open(l.snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet snapshot opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[SnapshotRecord](pf)
	defer reader.Close()

	var known []institution.Known
	rows := make([]SnapshotRecord, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		for _, record := range rows[:n] {
			known = append(known, record.Known())
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet snapshot", "institutions", len(known))

	return known, nil
}
