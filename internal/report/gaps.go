// Package report produces the read-only audits over the sheet and the cache:
// which rows still lack a file, which rows share an identity key, which rows
// have nothing to fetch from, and how the map UI would collapse rows by host.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"path"

	"ecomap/internal/cache"
	"ecomap/internal/logokey"
	"ecomap/internal/org"
)

// GapSummary is printed as JSON after the gap CSVs are written.
type GapSummary struct {
	TotalRows           int `json:"totalRows"`
	WithLogoURL         int `json:"withLogoUrl"`
	UniqueKeys          int `json:"uniqueKeys"`
	ExistingLocalFiles  int `json:"existingLocalFiles"`
	MissingKeys         int `json:"missingKeys"`
	MissingRowsExpanded int `json:"missingRowsExpanded"`
	DuplicateKeysCount  int `json:"duplicateKeysCount"`
}

// GapRow is one sheet row in a gap CSV.
type GapRow struct {
	Key        string
	Name       string
	Website    string
	LogoURL    string
	OutputPath string
}

// GapReport groups rows by identity key against the cache directory.
type GapReport struct {
	Summary    GapSummary
	Missing    []GapRow // every row of every key without a file
	Duplicates []GapRow // every row of every key shared by more than one row
}

// Gaps builds the report. outputPrefix is the directory written into the
// output_path column, e.g. "public/logos".
func Gaps(rows []org.Organization, dir *cache.Dir, outputPrefix string) (GapReport, error) {
	files, err := dir.List()
	if err != nil {
		return GapReport{}, err
	}
	existing := make(map[string]bool, len(files))
	for _, f := range files {
		existing[cache.KeyOf(f)] = true
	}

	var order []string
	byKey := make(map[string][]org.Organization)
	withLogo := 0
	for _, o := range rows {
		if o.HasLogoURL() {
			withLogo++
		}
		key := logokey.DeriveKey(o)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], o)
	}

	report := GapReport{
		Missing:    []GapRow{},
		Duplicates: []GapRow{},
	}
	missingKeys, dupKeys := 0, 0
	for _, key := range order {
		group := byKey[key]
		out := path.Join(outputPrefix, key+".png")
		if !existing[key] {
			missingKeys++
			for _, o := range group {
				report.Missing = append(report.Missing, gapRow(key, o, out))
			}
		}
		if len(group) > 1 {
			dupKeys++
			for _, o := range group {
				report.Duplicates = append(report.Duplicates, gapRow(key, o, out))
			}
		}
	}

	report.Summary = GapSummary{
		TotalRows:           len(rows),
		WithLogoURL:         withLogo,
		UniqueKeys:          len(order),
		ExistingLocalFiles:  len(existing),
		MissingKeys:         missingKeys,
		MissingRowsExpanded: len(report.Missing),
		DuplicateKeysCount:  dupKeys,
	}
	return report, nil
}

func gapRow(key string, o org.Organization, out string) GapRow {
	return GapRow{Key: key, Name: o.Name, Website: o.Website, LogoURL: o.LogoURL, OutputPath: out}
}

// WriteMissingCSV writes name, website, logo_url, output_path.
func WriteMissingCSV(w io.Writer, rows []GapRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"name", "website", "logo_url", "output_path"})
	for _, r := range rows {
		records = append(records, []string{r.Name, r.Website, r.LogoURL, r.OutputPath})
	}
	return writeCSV(w, records)
}

// WriteDuplicatesCSV writes base, name, website, logo_url, output_path where
// base is the shared identity key.
func WriteDuplicatesCSV(w io.Writer, rows []GapRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"base", "name", "website", "logo_url", "output_path"})
	for _, r := range rows {
		records = append(records, []string{r.Key, r.Name, r.Website, r.LogoURL, r.OutputPath})
	}
	return writeCSV(w, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
