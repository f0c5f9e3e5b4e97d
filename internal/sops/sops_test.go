package sops

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCatalog(t *testing.T) *Catalog {
	t.Helper()
	return NewCatalog(filepath.Join(t.TempDir(), "sops.json"))
}

// emptyCatalog returns a catalog whose file exists but holds no entries, so
// tests start without the seeded defaults.
func emptyCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sops.json")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o600))
	return NewCatalog(path)
}

func validSOP(id string) SOP {
	return SOP{
		ID:          id,
		Title:       "Backup Rotation",
		Description: "Rotate and verify nightly backups",
		Category:    "System",
		Link:        "https://example.com/sop/backup-rotation",
	}
}

func TestMissingFileSeedsDefaults(t *testing.T) {
	catalog := tempCatalog(t)

	all, err := catalog.All()
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "data_processing", all[0].ID)
	assert.Equal(t, "api_integration", all[3].ID)

	categories, err := catalog.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Processing", "Integration", "Media Processing", "Web Automation"}, categories)
}

func TestAddValidatesRequiredFields(t *testing.T) {
	catalog := emptyCatalog(t)

	tests := []struct {
		name   string
		mutate func(*SOP)
	}{
		{"missing id", func(s *SOP) { s.ID = "" }},
		{"missing title", func(s *SOP) { s.Title = "" }},
		{"missing description", func(s *SOP) { s.Description = "  " }},
		{"missing category", func(s *SOP) { s.Category = "" }},
		{"missing link", func(s *SOP) { s.Link = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sop := validSOP("backup_rotation")
			tt.mutate(&sop)
			assert.ErrorIs(t, catalog.Add(sop), ErrMissingField)
		})
	}
}

func TestAddAppliesDefaultsAndTimestamps(t *testing.T) {
	catalog := emptyCatalog(t)
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return fixed }

	require.NoError(t, catalog.Add(validSOP("backup_rotation")))

	sop, err := catalog.Get("backup_rotation")
	require.NoError(t, err)
	assert.Equal(t, DefaultDifficulty, sop.Difficulty)
	assert.Equal(t, DefaultDuration, sop.Duration)
	assert.Equal(t, DefaultIcon, sop.Icon)
	assert.NotNil(t, sop.Tags)
	assert.True(t, sop.CreatedAt.Equal(fixed))
	assert.True(t, sop.UpdatedAt.Equal(fixed))
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	catalog := emptyCatalog(t)
	require.NoError(t, catalog.Add(validSOP("backup_rotation")))

	err := catalog.Add(validSOP("backup_rotation"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestUpdateStampsAndValidates(t *testing.T) {
	catalog := emptyCatalog(t)
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return created }
	require.NoError(t, catalog.Add(validSOP("backup_rotation")))

	updated := created.Add(time.Hour)
	catalog.now = func() time.Time { return updated }
	err := catalog.Update("backup_rotation", func(s *SOP) {
		s.Difficulty = "Advanced"
		s.ID = "attempted_rename"
	})
	require.NoError(t, err)

	sop, err := catalog.Get("backup_rotation")
	require.NoError(t, err)
	assert.Equal(t, "Advanced", sop.Difficulty)
	assert.True(t, sop.CreatedAt.Equal(created))
	assert.True(t, sop.UpdatedAt.Equal(updated))

	err = catalog.Update("backup_rotation", func(s *SOP) { s.Title = "" })
	assert.ErrorIs(t, err, ErrMissingField)

	err = catalog.Update("ghost", func(s *SOP) {})
	assert.ErrorIs(t, err, ErrSOPNotFound)
}

func TestRemove(t *testing.T) {
	catalog := emptyCatalog(t)
	require.NoError(t, catalog.Add(validSOP("backup_rotation")))

	require.NoError(t, catalog.Remove("backup_rotation"))
	_, err := catalog.Get("backup_rotation")
	assert.ErrorIs(t, err, ErrSOPNotFound)

	assert.ErrorIs(t, catalog.Remove("backup_rotation"), ErrSOPNotFound)
}

func TestByCategory(t *testing.T) {
	catalog := emptyCatalog(t)

	first := validSOP("one")
	second := validSOP("two")
	second.Category = "Reporting"
	require.NoError(t, catalog.Add(first))
	require.NoError(t, catalog.Add(second))

	system, err := catalog.ByCategory("System")
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Equal(t, "one", system[0].ID)

	none, err := catalog.ByCategory("Nothing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sops.json")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o600))

	catalog := NewCatalog(path)
	require.NoError(t, catalog.Add(validSOP("backup_rotation")))

	reopened := NewCatalog(path)
	sop, err := reopened.Get("backup_rotation")
	require.NoError(t, err)
	assert.Equal(t, "Backup Rotation", sop.Title)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n')

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "backup_rotation", raw[0]["id"])
}

func TestCorruptedCatalogStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sops.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	catalog := NewCatalog(path)
	all, err := catalog.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, catalog.Add(validSOP("fresh_start")))
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "email_automation_guide", NormalizeID("Email Automation Guide"))
	assert.Equal(t, "already_done", NormalizeID("already_done"))
	assert.Equal(t, "spaced", NormalizeID("  Spaced  "))
}

func TestImportCSV(t *testing.T) {
	catalog := emptyCatalog(t)

	csvData := `id,title,description,category,difficulty,duration,link,tags
log_analysis,Log Analysis Tutorial,Analyze log files,Data Processing,Intermediate,20 min,https://example.com/sop/log-analysis,"Logs, Analysis"
,Email Automation Guide,Automate email sending,Integration,,,https://example.com/sop/email-automation,
bad_row,,missing title,General,,,https://example.com/nothing,
log_analysis,Duplicate,Dup of first row,General,,,https://example.com/dup,
`
	csvPath := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvData), 0o600))

	count, err := catalog.ImportCSV(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	logSOP, err := catalog.Get("log_analysis")
	require.NoError(t, err)
	assert.Equal(t, "Intermediate", logSOP.Difficulty)
	assert.Equal(t, []string{"Logs", "Analysis"}, logSOP.Tags)

	// The row without an ID derives one from its title.
	emailSOP, err := catalog.Get("email_automation_guide")
	require.NoError(t, err)
	assert.Equal(t, DefaultDifficulty, emailSOP.Difficulty)
	assert.Equal(t, DefaultDuration, emailSOP.Duration)
}

func TestImportCSVMissingFile(t *testing.T) {
	catalog := emptyCatalog(t)
	_, err := catalog.ImportCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
