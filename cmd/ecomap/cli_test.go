package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomap/internal/cache"
	"ecomap/internal/config"
	"ecomap/internal/reconcile"
	"ecomap/internal/report"
	"ecomap/internal/resolve"
)

type workspace struct {
	dir   string
	logos string
	sheet string
}

func newWorkspace(t *testing.T, sheetCSV string) workspace {
	t.Helper()
	for _, k := range []string{"GOOGLE_SHEET_ID", "GOOGLE_SHEETS_API_KEY", "ECOMAP_SHEET_FILE", "ECOMAP_LOGOS_DIR"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	ws := workspace{dir: dir, logos: filepath.Join(dir, "public", "logos"), sheet: filepath.Join(dir, "sheet.csv")}
	require.NoError(t, os.WriteFile(ws.sheet, []byte(sheetCSV), 0o644))
	return ws
}

// run executes the root command with fresh flag state.
func (ws workspace) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	verbose, configPath, envFile, logosDir, sheetFile, timeout = false, "", "", "", "", 0
	cacheLimit, cacheForce, cacheLogoOnly, cacheWorkers = 0, false, false, 0
	scrapeLimit, scrapeForce, scrapeLogoOnly, scrapeRender, scrapeReplace, scrapeWorkers = 0, false, false, false, false, 0
	reportOutDir, dedupeAllTiers = ".", false

	base := []string{
		"--config", filepath.Join(ws.dir, "ecomap.yaml"),
		"--env-file", filepath.Join(ws.dir, ".env.local"),
		"--logos-dir", ws.logos,
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func logoServer(t *testing.T) *httptest.Server {
	t.Helper()
	png, err := resolve.Placeholder(8, "#123456")
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(png)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCacheCmd(t *testing.T) {
	server := logoServer(t)
	ws := newWorkspace(t, "Organization,URL,Logo,Category\n"+
		"Acme Corp,https://acme.bd,,Fintech\n"+
		"Beta,beta.io,"+server.URL+"/logo.png,Health\n"+
		"Broken,broken.io,"+server.URL+"/missing.png,Health\n"+
		",nameless.io,,\n")

	stdout, _, err := ws.run(t, "--sheet-file", ws.sheet, "cache")
	require.NoError(t, err)

	var summary cache.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.EqualValues(t, 3, summary.Processed)
	assert.EqualValues(t, 3, summary.Saved)
	assert.EqualValues(t, 1, summary.SavedFromLogoURL)
	assert.EqualValues(t, 2, summary.Placeholders)

	_, err = os.Stat(filepath.Join(ws.logos, "acme-corp-2dc97ff2.png"))
	assert.NoError(t, err)

	stdout, _, err = ws.run(t, "--sheet-file", ws.sheet, "cache")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.EqualValues(t, 3, summary.SkippedExists)
	assert.EqualValues(t, 0, summary.Saved)
}

func TestCacheCmd_LogoOnlyAndLimit(t *testing.T) {
	ws := newWorkspace(t, "name,website\nA,a.com\nB,b.com\nC,c.com\n")

	stdout, _, err := ws.run(t, "--sheet-file", ws.sheet, "cache", "--logo-only", "--limit", "2")
	require.NoError(t, err)

	var summary cache.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.EqualValues(t, 2, summary.Processed)
	assert.EqualValues(t, 2, summary.SkippedNoLogo)
	_, err = os.Stat(ws.logos)
	if err == nil {
		entries, _ := os.ReadDir(ws.logos)
		assert.Empty(t, entries)
	}
}

func TestReconcileCmd(t *testing.T) {
	ws := newWorkspace(t, "name,website\nAcme Corp,https://acme.bd\nBeta,beta.io\n")
	require.NoError(t, os.MkdirAll(ws.logos, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.logos, "old-00000000.png"), []byte("x"), 0o644))

	stdout, _, err := ws.run(t, "--sheet-file", ws.sheet, "reconcile")
	require.NoError(t, err)

	var summary reconcile.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 2, summary.Expected)
	assert.Equal(t, 1, summary.ExistingBefore)
	assert.EqualValues(t, 2, summary.Placeholders)
	assert.EqualValues(t, 1, summary.MovedToArchive)
	assert.Equal(t, 2, summary.FinalCount)

	_, err = os.Stat(filepath.Join(ws.logos, cache.ArchiveDirName, "old-00000000.png"))
	assert.NoError(t, err)
}

func TestReportMissingCmd(t *testing.T) {
	ws := newWorkspace(t, "name,website\nAcme Corp,https://acme.bd\nAcme Corp,acme.bd\nBeta,beta.io\n")

	_, stderr, err := ws.run(t, "--sheet-file", ws.sheet, "report", "missing", "--out-dir", ws.dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Summary:")
	assert.Contains(t, stderr, "Wrote 3 rows to")

	f, err := os.Open(filepath.Join(ws.dir, "missing-logos.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"name", "website", "logo_url", "output_path"}, records[0])
	assert.True(t, strings.HasSuffix(records[1][3], "public/logos/acme-corp-2dc97ff2.png"))

	dup, err := os.ReadFile(filepath.Join(ws.dir, "duplicate-logo-bases.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(dup), "acme-corp-2dc97ff2")

	jsonPart := stderr[strings.Index(stderr, "{"):strings.LastIndex(stderr, "}")+1]
	var summary report.GapSummary
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &summary))
	assert.Equal(t, 2, summary.UniqueKeys)
	assert.Equal(t, 1, summary.DuplicateKeysCount)
}

func TestReportNeedsSourcingCmd(t *testing.T) {
	ws := newWorkspace(t, "name,type,website,logo\nNothing,NGO,,\nSite,Tech,site.com,\n")

	stdout, stderr, err := ws.run(t, "--sheet-file", ws.sheet, "report", "needs-sourcing", "--out-dir", ws.dir)
	require.NoError(t, err)
	assert.Equal(t, "name,category,website,logo_url\nNothing,NGO,,\n", stdout)
	assert.Contains(t, stderr, "Wrote 1 rows")

	onDisk, err := os.ReadFile(filepath.Join(ws.dir, "needs-sourcing.csv"))
	require.NoError(t, err)
	assert.Equal(t, stdout, string(onDisk))
}

func TestReportDedupeCmd(t *testing.T) {
	ws := newWorkspace(t, "name,website,tier\nAcme,acme.com,1\nAcme Labs,www.acme.com,1\nGamma,gamma.com,2\n")

	stdout, _, err := ws.run(t, "--sheet-file", ws.sheet, "report", "dedupe")
	require.NoError(t, err)
	var audit report.BaseKeyAudit
	require.NoError(t, json.Unmarshal([]byte(stdout), &audit))
	assert.Equal(t, 2, audit.ConsideredRows)
	assert.Equal(t, 1, audit.CollapsedCount)

	stdout, _, err = ws.run(t, "--sheet-file", ws.sheet, "report", "dedupe", "--all-tiers")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &audit))
	assert.Equal(t, 3, audit.ConsideredRows)
}

func TestMissingSheetCredentials(t *testing.T) {
	ws := newWorkspace(t, "name\n")

	_, _, err := ws.run(t, "cache")
	assert.True(t, errors.Is(err, config.ErrMissingSheetID))

	t.Setenv("GOOGLE_SHEET_ID", "sheet-123")
	_, _, err = ws.run(t, "reconcile")
	assert.True(t, errors.Is(err, config.ErrMissingAPIKey))
}

func TestEnvFileConfiguresSheet(t *testing.T) {
	ws := newWorkspace(t, "name,website\nAcme Corp,https://acme.bd\n")
	os.Unsetenv("ECOMAP_SHEET_FILE")
	require.NoError(t, os.WriteFile(filepath.Join(ws.dir, ".env.local"), []byte("ECOMAP_SHEET_FILE="+ws.sheet+"\n"), 0o644))
	defer os.Unsetenv("ECOMAP_SHEET_FILE")

	stdout, _, err := ws.run(t, "cache")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"placeholders": 1`)
}

func TestWatchRequiresSheetFile(t *testing.T) {
	ws := newWorkspace(t, "name\n")
	_, _, err := ws.run(t, "watch")
	assert.Error(t, err)
}
