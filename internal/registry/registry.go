// Package registry manages the catalog of runnable scripts. The catalog
// lives in a YAML file (scripts.yaml by default); entries without a path
// refer to the built-in simulation.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Registry errors.
var (
	ErrScriptNotFound = errors.New("script not found in registry")
	ErrDuplicateName  = errors.New("script name already registered")
	ErrEmptyName      = errors.New("script name cannot be empty")
)

// Script is one registered entry. An empty Path marks the built-in
// simulation. Requires optionally pins the minimum app version the script
// needs, as a semver constraint.
type Script struct {
	Name        string         `yaml:"name" json:"name"`
	Path        string         `yaml:"path,omitempty" json:"path,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string         `yaml:"category,omitempty" json:"category,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Requires    string         `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// IsBuiltin reports whether the entry runs the built-in simulation rather
// than an on-disk script.
func (s Script) IsBuiltin() bool {
	return s.Path == ""
}

// ResolvePath returns the absolute script path, resolving relative paths
// against scriptsDir. Built-in entries resolve to the empty string.
func (s Script) ResolvePath(scriptsDir string) string {
	if s.IsBuiltin() || filepath.IsAbs(s.Path) {
		return s.Path
	}
	return filepath.Join(scriptsDir, s.Path)
}

// CheckRequires verifies the app version against the script's Requires
// constraint. Scripts without a constraint always pass; malformed
// constraints or versions fail closed with a descriptive error.
func (s Script) CheckRequires(appVersion string) error {
	if s.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(s.Requires)
	if err != nil {
		return fmt.Errorf("script %q has invalid requires constraint %q: %w", s.Name, s.Requires, err)
	}

	v, err := semver.NewVersion(appVersion)
	if err != nil {
		return fmt.Errorf("cannot parse app version %q: %w", appVersion, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("script %q requires autobear %s, running %s", s.Name, s.Requires, appVersion)
	}
	return nil
}

// Registry is the loaded script catalog. Warnings collects non-fatal issues
// found while loading so commands can surface them without failing.
type Registry struct {
	DefaultScript string   `yaml:"default_script"`
	Categories    []string `yaml:"categories"`
	Scripts       []Script `yaml:"scripts"`

	Warnings []string `yaml:"-"`
}

// DefaultCategories mirrors the script categories the application ships
// with.
func DefaultCategories() []string {
	return []string{
		"Testing",
		"Data Processing",
		"Reporting",
		"System",
		"Web Automation",
		"File Operations",
		"Integration",
	}
}

// DefaultRegistry returns the seeded catalog used when no registry file
// exists yet.
func DefaultRegistry() *Registry {
	return &Registry{
		DefaultScript: "Simulation",
		Categories:    DefaultCategories(),
		Scripts: []Script{
			{
				Name:        "Simulation",
				Description: "Built-in simulation for testing",
				Category:    "Testing",
			},
			{
				Name:        "Test Data Processor",
				Path:        "test_data_processor.py",
				Description: "Processes data and demonstrates log levels",
				Category:    "Data Processing",
				Parameters: map[string]any{
					"batch_size":    100,
					"output_format": "json",
				},
			},
			{
				Name:        "File Organizer",
				Path:        "file_organizer.py",
				Description: "Organizes files into categories",
				Category:    "File Operations",
				Parameters: map[string]any{
					"source_dir":    "./",
					"create_backup": true,
				},
			},
		},
	}
}

// Load reads the registry from path. A missing file yields the seeded
// default registry. Structural problems in individual entries (empty names,
// duplicates, unknown categories, unsatisfiable requires constraints) become
// warnings rather than failures so one bad entry never hides the rest.
func Load(path, appVersion string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(), nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}

	if len(reg.Categories) == 0 {
		reg.Categories = DefaultCategories()
	}

	reg.validate(appVersion)
	return &reg, nil
}

// validate filters malformed entries and records warnings.
func (r *Registry) validate(appVersion string) {
	known := make(map[string]bool, len(r.Categories))
	for _, c := range r.Categories {
		known[c] = true
	}

	seen := make(map[string]bool, len(r.Scripts))
	valid := r.Scripts[:0]
	for _, s := range r.Scripts {
		if s.Name == "" {
			r.Warnings = append(r.Warnings, "script entry without a name skipped")
			continue
		}
		if seen[s.Name] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("duplicate script %q skipped", s.Name))
			continue
		}
		seen[s.Name] = true

		if s.Category != "" && !known[s.Category] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("script %q uses unknown category %q", s.Name, s.Category))
		}
		if appVersion != "" {
			if err := s.CheckRequires(appVersion); err != nil {
				r.Warnings = append(r.Warnings, err.Error())
			}
		}
		valid = append(valid, s)
	}
	r.Scripts = valid

	if r.DefaultScript != "" && !seen[r.DefaultScript] {
		r.Warnings = append(r.Warnings, fmt.Sprintf("default script %q is not registered", r.DefaultScript))
		r.DefaultScript = ""
	}
}

// Save writes the registry as YAML with mode 0600 and a trailing newline.
func (r *Registry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshalling registry: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing registry %s: %w", path, err)
	}
	return nil
}

// Get returns the named script.
func (r *Registry) Get(name string) (Script, error) {
	for _, s := range r.Scripts {
		if s.Name == name {
			return s, nil
		}
	}
	return Script{}, fmt.Errorf("%w: %q", ErrScriptNotFound, name)
}

// List returns all scripts sorted by name.
func (r *Registry) List() []Script {
	out := make([]Script, len(r.Scripts))
	copy(out, r.Scripts)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory returns the scripts in the given category, sorted by name.
func (r *Registry) ByCategory(category string) []Script {
	var out []Script
	for _, s := range r.Scripts {
		if s.Category == category {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default returns the registry's default script, falling back to the first
// entry when none is marked.
func (r *Registry) Default() (Script, error) {
	if r.DefaultScript != "" {
		return r.Get(r.DefaultScript)
	}
	if len(r.Scripts) > 0 {
		return r.List()[0], nil
	}
	return Script{}, ErrScriptNotFound
}

// Add registers a new script.
func (r *Registry) Add(s Script) error {
	if s.Name == "" {
		return ErrEmptyName
	}
	if _, err := r.Get(s.Name); err == nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	r.Scripts = append(r.Scripts, s)
	return nil
}

// Remove deletes a script by name.
func (r *Registry) Remove(name string) error {
	for i, s := range r.Scripts {
		if s.Name == name {
			r.Scripts = append(r.Scripts[:i], r.Scripts[i+1:]...)
			if r.DefaultScript == name {
				r.DefaultScript = ""
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrScriptNotFound, name)
}
