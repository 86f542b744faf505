package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ecomap/internal/cache"
	"ecomap/internal/report"
)

var (
	reportOutDir   string
	dedupeAllTiers bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Read-only audits of the sheet and the cache",
}

var reportMissingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Write missing-logos.csv and duplicate-logo-bases.csv",
	Long: `Groups rows by identity key. Rows whose key has no cache file go to
missing-logos.csv; rows sharing a key with another row go to
duplicate-logo-bases.csv. The JSON summary is printed on stderr.`,
	Args: cobra.NoArgs,
	RunE: runReportMissing,
}

var reportNeedsSourcingCmd = &cobra.Command{
	Use:   "needs-sourcing",
	Short: "Write needs-sourcing.csv: rows with neither logo_url nor website",
	Args:  cobra.NoArgs,
	RunE:  runReportNeedsSourcing,
}

var reportDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Show how the map collapses rows that share a site",
	Args:  cobra.NoArgs,
	RunE:  runReportDedupe,
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportOutDir, "out-dir", ".", "Directory CSV reports are written to")
	reportDedupeCmd.Flags().BoolVar(&dedupeAllTiers, "all-tiers", false, "Consider every row, not just tier one")

	reportCmd.AddCommand(reportMissingCmd)
	reportCmd.AddCommand(reportNeedsSourcingCmd)
	reportCmd.AddCommand(reportDedupeCmd)
}

func runReportMissing(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}
	gaps, err := report.Gaps(rows, cache.NewDir(cfg.Cache.Dir), outputPrefix())
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	missingPath := filepath.Join(reportOutDir, "missing-logos.csv")
	if err := writeReport(missingPath, func(w io.Writer) error { return report.WriteMissingCSV(w, gaps.Missing) }); err != nil {
		return err
	}
	dupPath := filepath.Join(reportOutDir, "duplicate-logo-bases.csv")
	if err := writeReport(dupPath, func(w io.Writer) error { return report.WriteDuplicatesCSV(w, gaps.Duplicates) }); err != nil {
		return err
	}

	fmt.Fprint(stderr, "Summary: ")
	if err := printJSON(stderr, gaps.Summary); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %d rows to %s\n", len(gaps.Missing), missingPath)
	fmt.Fprintf(stderr, "Wrote %d rows to %s\n", len(gaps.Duplicates), dupPath)
	return nil
}

func runReportNeedsSourcing(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}
	needs := report.NeedsSourcing(rows)

	var buf bytes.Buffer
	if err := report.WriteNeedsSourcingCSV(&buf, needs); err != nil {
		return err
	}
	out := filepath.Join(reportOutDir, "needs-sourcing.csv")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(needs), out)
	return nil
}

func runReportDedupe(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report.AuditBaseKeys(rows, !dedupeAllTiers))
}

func writeReport(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
