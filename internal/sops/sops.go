// Package sops manages the catalog of standard operating procedures shown
// alongside scripts. The catalog is a JSON array on disk; entries carry
// display metadata and a link to the full procedure document.
package sops

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultDifficulty is assumed when an entry does not state one.
	DefaultDifficulty = "Beginner"
	// DefaultDuration is assumed when an entry does not state one.
	DefaultDuration = "15 min"
	// DefaultIcon marks entries without a custom icon.
	DefaultIcon = "📄"
)

var (
	// ErrSOPNotFound indicates no catalog entry has the requested ID.
	ErrSOPNotFound = errors.New("sop not found")
	// ErrDuplicateID indicates an entry with the same ID already exists.
	ErrDuplicateID = errors.New("sop id already exists")
	// ErrMissingField indicates a required field was left empty.
	ErrMissingField = errors.New("missing required field")
)

// SOP is one standard operating procedure entry.
type SOP struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Difficulty  string    `json:"difficulty"`
	Duration    string    `json:"duration"`
	Link        string    `json:"link"`
	Icon        string    `json:"icon"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// validate checks required fields. ID, title, description, category, and
// link must all be present.
func (s SOP) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"id", s.ID},
		{"title", s.Title},
		{"description", s.Description},
		{"category", s.Category},
		{"link", s.Link},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}
	return nil
}

// applyDefaults fills optional fields left empty.
func (s *SOP) applyDefaults() {
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
	if s.Duration == "" {
		s.Duration = DefaultDuration
	}
	if s.Icon == "" {
		s.Icon = DefaultIcon
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
}

// NormalizeID converts a free-form name into a catalog ID.
func NormalizeID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// DefaultSOPs returns the catalog entries seeded on first use.
func DefaultSOPs() []SOP {
	return []SOP{
		{
			ID:          "data_processing",
			Title:       "Data Processing Script",
			Description: "Learn how to process CSV files, clean data, and generate reports",
			Category:    "Data Processing",
			Difficulty:  "Beginner",
			Duration:    "15 min",
			Link:        "https://example.com/sop/data-processing",
			Icon:        "📊",
			Tags:        []string{"CSV", "Data", "Reports"},
		},
		{
			ID:          "web_scraping",
			Title:       "Web Scraping Guide",
			Description: "Step-by-step guide for setting up and running web scraping scripts",
			Category:    "Web Automation",
			Difficulty:  "Intermediate",
			Duration:    "30 min",
			Link:        "https://example.com/sop/web-scraping",
			Icon:        "🌐",
			Tags:        []string{"Web", "Scraping", "Automation"},
		},
		{
			ID:          "image_processing",
			Title:       "Image Processing",
			Description: "Batch process images with resizing, optimization, and format conversion",
			Category:    "Media Processing",
			Difficulty:  "Beginner",
			Duration:    "10 min",
			Link:        "https://example.com/sop/image-processing",
			Icon:        "🖼️",
			Tags:        []string{"Images", "Media", "Batch"},
		},
		{
			ID:          "api_integration",
			Title:       "API Integration Guide",
			Description: "Connect to external APIs and process responses effectively",
			Category:    "Integration",
			Difficulty:  "Advanced",
			Duration:    "45 min",
			Link:        "https://example.com/sop/api-integration",
			Icon:        "🔌",
			Tags:        []string{"API", "Integration", "REST"},
		},
	}
}

// Catalog reads and writes the SOP collection. All methods are safe for
// concurrent use.
type Catalog struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
	now  func() time.Time
	sops []SOP // nil until loaded
}

// NewCatalog creates a catalog stored at path.
func NewCatalog(path string) *Catalog {
	return NewCatalogWithLogger(path, zerolog.Nop())
}

// NewCatalogWithLogger creates a catalog that reports recoverable problems
// through logger.
func NewCatalogWithLogger(path string, logger zerolog.Logger) *Catalog {
	return &Catalog{
		path: path,
		log:  logger.With().Str("component", "sops").Logger(),
		now:  time.Now,
	}
}

// Path returns the catalog file location.
func (c *Catalog) Path() string {
	return c.path
}

// Add validates and stores a new entry. Optional fields receive defaults and
// timestamps are stamped.
func (c *Catalog) Add(sop SOP) error {
	if err := sop.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return err
	}
	for _, existing := range c.sops {
		if existing.ID == sop.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, sop.ID)
		}
	}

	sop.applyDefaults()
	now := c.now()
	sop.CreatedAt = now
	sop.UpdatedAt = now

	c.sops = append(c.sops, sop)
	return c.saveLocked()
}

// Update applies mutate to the entry with the given ID and stamps its
// UpdatedAt. The ID itself cannot be changed.
func (c *Catalog) Update(id string, mutate func(*SOP)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return err
	}
	for i := range c.sops {
		if c.sops[i].ID != id {
			continue
		}
		mutate(&c.sops[i])
		c.sops[i].ID = id
		c.sops[i].UpdatedAt = c.now()
		if err := c.sops[i].validate(); err != nil {
			return err
		}
		return c.saveLocked()
	}
	return fmt.Errorf("%w: %s", ErrSOPNotFound, id)
}

// Remove deletes the entry with the given ID.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return err
	}
	for i := range c.sops {
		if c.sops[i].ID == id {
			c.sops = append(c.sops[:i], c.sops[i+1:]...)
			return c.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrSOPNotFound, id)
}

// Get returns the entry with the given ID.
func (c *Catalog) Get(id string) (SOP, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return SOP{}, err
	}
	for _, sop := range c.sops {
		if sop.ID == id {
			return sop, nil
		}
	}
	return SOP{}, fmt.Errorf("%w: %s", ErrSOPNotFound, id)
}

// All returns every entry in catalog order.
func (c *Catalog) All() ([]SOP, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]SOP, len(c.sops))
	copy(out, c.sops)
	return out, nil
}

// ByCategory returns the entries in one category.
func (c *Catalog) ByCategory(category string) ([]SOP, error) {
	all, err := c.All()
	if err != nil {
		return nil, err
	}
	var out []SOP
	for _, sop := range all {
		if sop.Category == category {
			out = append(out, sop)
		}
	}
	return out, nil
}

// Categories returns the distinct categories in use, sorted.
func (c *Catalog) Categories() ([]string, error) {
	all, err := c.All()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, sop := range all {
		if _, ok := seen[sop.Category]; ok {
			continue
		}
		seen[sop.Category] = struct{}{}
		out = append(out, sop.Category)
	}
	sort.Strings(out)
	return out, nil
}

// ImportCSV adds entries from a CSV file with a header row. Rows missing
// required fields or duplicating existing IDs are skipped. It returns how
// many entries were imported.
func (c *Catalog) ImportCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	imported := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("reading csv: %w", err)
		}

		sop := SOP{
			ID:          NormalizeID(field(row, "id")),
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Category:    field(row, "category"),
			Difficulty:  field(row, "difficulty"),
			Duration:    field(row, "duration"),
			Link:        field(row, "link"),
			Icon:        field(row, "icon"),
		}
		if sop.ID == "" {
			sop.ID = NormalizeID(sop.Title)
		}
		if sop.Category == "" {
			sop.Category = "General"
		}
		if tags := field(row, "tags"); tags != "" {
			for _, tag := range strings.Split(tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					sop.Tags = append(sop.Tags, tag)
				}
			}
		}

		if err := c.Add(sop); err != nil {
			c.log.Warn().Err(err).Str("id", sop.ID).Msg("Skipping CSV row")
			continue
		}
		imported++
	}
	return imported, nil
}

// loadLocked reads the catalog once. A missing file seeds the default
// entries; a corrupted file is logged and treated as empty.
func (c *Catalog) loadLocked() error {
	if c.sops != nil {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.sops = DefaultSOPs()
			return nil
		}
		return fmt.Errorf("reading sop catalog: %w", err)
	}

	var sops []SOP
	if err := json.Unmarshal(data, &sops); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("SOP catalog is corrupted, starting fresh")
		c.sops = []SOP{}
		return nil
	}
	if sops == nil {
		sops = []SOP{}
	}
	c.sops = sops
	return nil
}

// saveLocked writes the catalog atomically via a temp file rename.
func (c *Catalog) saveLocked() error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating sop directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c.sops, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sop catalog: %w", err)
	}
	data = append(data, '\n')

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("writing sop catalog: %w", err)
	}
	if err := os.Rename(tempPath, c.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replacing sop catalog: %w", err)
	}
	return nil
}
