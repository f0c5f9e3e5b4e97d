package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobear/autobear/internal/sops"
)

func TestSOPsListSeedsDefaults(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "sops", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "data_processing")
	assert.Contains(t, out, "Web Scraping Guide")
	assert.Contains(t, out, "Intermediate")
}

func TestSOPsListCategoryFilter(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "sops", "list", "--category", "Integration", "--output", "json")
	require.NoError(t, err)

	var entries []sops.SOP
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "api_integration", entries[0].ID)
}

func TestSOPsListUnknownCategoryIsEmpty(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "sops", "list", "--category", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No procedures in the catalog.")
}

func TestSOPsShowDetail(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "sops", "show", "web_scraping")
	require.NoError(t, err)
	assert.Contains(t, out, "Web Scraping Guide")
	assert.Contains(t, out, "Category:    Web Automation")
	assert.Contains(t, out, "Tags:        Web, Scraping, Automation")
	assert.Contains(t, out, "Step-by-step guide")
}

func TestSOPsShowUnknown(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "sops", "show", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sop not found")
}

func TestSOPsAddRemoveLifecycle(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "sops", "add",
		"--title", "Database Restore",
		"--description", "Restore the reporting database",
		"--category", "Maintenance",
		"--link", "https://wiki.example.com/sop/db-restore",
		"--tags", "db,restore")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "database_restore" to the catalog`)

	out, err = runCLI(t, "sops", "show", "database_restore", "--output", "json")
	require.NoError(t, err)
	var entry sops.SOP
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "Database Restore", entry.Title)
	assert.Equal(t, sops.DefaultDifficulty, entry.Difficulty)
	assert.Equal(t, []string{"db", "restore"}, entry.Tags)
	assert.False(t, entry.CreatedAt.IsZero())

	out, err = runCLI(t, "sops", "remove", "database_restore")
	require.NoError(t, err)
	assert.Contains(t, out, `Removed "database_restore" from the catalog`)

	_, err = runCLI(t, "sops", "show", "database_restore")
	require.Error(t, err)
}

func TestSOPsAddRejectsIncomplete(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "sops", "add", "--title", "No Link")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestSOPsImportCSV(t *testing.T) {
	testHome(t)

	csvData := `id,title,description,category,difficulty,duration,link,tags
log_rotate,Log Rotation,Rotate and archive service logs,Maintenance,Beginner,10 min,https://wiki.example.com/sop/log-rotate,"Logs, Archive"
,Queue Drain,Drain the work queue before maintenance,Maintenance,,,https://wiki.example.com/sop/queue-drain,
`
	csvPath := filepath.Join(t.TempDir(), "procedures.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvData), 0o600))

	out, err := runCLI(t, "sops", "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 procedure(s)")

	out, err = runCLI(t, "sops", "show", "queue_drain")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue Drain")

	// Re-importing the same file skips every existing ID.
	out, err = runCLI(t, "sops", "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 procedure(s)")
}

func TestSOPsImportMissingFile(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "sops", "import", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening csv")
}
