// Package migration moves state written by older releases into the autobear
// home directory. Old versions kept everything in config/ and data/
// directories beside the executable; nothing there is modified, files are
// copied and the originals preserved.
package migration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Item is one piece of legacy state and where it belongs now.
type Item struct {
	Name   string
	Source string
	Target string
}

// DetectLegacy scans root for state from older releases and pairs each piece
// with its destination under home. Only items that actually exist are
// returned.
func DetectLegacy(root, home string) []Item {
	candidates := []Item{
		{
			Name:   "execution history",
			Source: filepath.Join(root, "data", "script_history"),
			Target: filepath.Join(home, "history"),
		},
		{
			Name:   "sop catalog",
			Source: filepath.Join(root, "data", "sops.json"),
			Target: filepath.Join(home, "sops.json"),
		},
		{
			Name:   "script settings",
			Source: filepath.Join(root, "config", "script_settings"),
			Target: filepath.Join(home, "script_settings"),
		},
	}

	var found []Item
	for _, item := range candidates {
		if _, err := os.Stat(item.Source); err == nil {
			found = append(found, item)
		}
	}
	return found
}

// ItemResult reports what happened to one item.
type ItemResult struct {
	Item
	Copied  int
	Skipped int
}

// Result summarizes a migration run.
type Result struct {
	Items  []ItemResult
	DryRun bool
}

// TotalCopied returns how many files were copied (or would be, for a dry
// run).
func (r Result) TotalCopied() int {
	total := 0
	for _, item := range r.Items {
		total += item.Copied
	}
	return total
}

// TotalSkipped returns how many files already existed at their target.
func (r Result) TotalSkipped() int {
	total := 0
	for _, item := range r.Items {
		total += item.Skipped
	}
	return total
}

// Migrate copies each item into place. Files already present at the target
// are never overwritten. With dryRun set, nothing is written and the result
// reports what a real run would do.
func Migrate(items []Item, dryRun bool) (Result, error) {
	res := Result{DryRun: dryRun}
	for _, item := range items {
		ir := ItemResult{Item: item}

		info, err := os.Stat(item.Source)
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", item.Source, err)
		}

		if info.IsDir() {
			err = copyTree(item.Source, item.Target, dryRun, &ir)
		} else {
			err = copyFile(item.Source, item.Target, dryRun, &ir)
		}
		if err != nil {
			return res, fmt.Errorf("migrating %s: %w", item.Name, err)
		}

		res.Items = append(res.Items, ir)
	}
	return res, nil
}

// copyTree recursively copies a directory, skipping files that already exist
// at the destination.
func copyTree(src, dst string, dryRun bool, ir *ItemResult) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			if dryRun {
				return nil
			}
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, dryRun, ir)
	})
}

// copyFile copies one file unless the target already exists.
func copyFile(src, dst string, dryRun bool, ir *ItemResult) error {
	if _, err := os.Stat(dst); err == nil {
		ir.Skipped++
		return nil
	}
	ir.Copied++
	if dryRun {
		return nil
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if mkdirErr := os.MkdirAll(filepath.Dir(dst), 0750); mkdirErr != nil {
		return mkdirErr
	}

	destFile, createErr := os.Create(dst)
	if createErr != nil {
		return createErr
	}
	defer destFile.Close()

	if _, copyErr := io.Copy(destFile, sourceFile); copyErr != nil {
		return copyErr
	}

	sourceInfo, statErr := os.Stat(src)
	if statErr != nil {
		return statErr
	}
	return os.Chmod(dst, sourceInfo.Mode())
}
