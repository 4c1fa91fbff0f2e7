// Package cleanup prunes saved recordings.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// TimestampLayout names the per-take directories under the recordings dir.
const TimestampLayout = "20060102-150405"

// Take is one saved recording directory.
type Take struct {
	Name       string
	CapturedAt time.Time
	Files      []string
}

// List returns the timestamp-named directories under dir, oldest first.
// A missing dir yields no takes.
func List(dir string) ([]Take, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recordings directory: %w", err)
	}

	var takes []Take
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t, parseErr := time.ParseInLocation(TimestampLayout, entry.Name(), time.Local)
		if parseErr != nil {
			// Skip directories that don't match the timestamp format.
			continue
		}

		files, err := filepath.Glob(filepath.Join(dir, entry.Name(), "*.webm"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", entry.Name(), err)
		}
		takes = append(takes, Take{Name: entry.Name(), CapturedAt: t, Files: files})
	}

	// Timestamp names sort chronologically.
	sort.Slice(takes, func(i, j int) bool { return takes[i].Name < takes[j].Name })
	return takes, nil
}

// PruneByAge removes take directories older than maxAgeDays.
// If dryRun is true, no directories are deleted; the function only returns
// the names that would be removed. Returns the list of pruned directory names.
func PruneByAge(dir string, maxAgeDays int, dryRun bool) ([]string, error) {
	takes, err := List(dir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var pruned []string

	for _, take := range takes {
		if !take.CapturedAt.Before(cutoff) {
			continue
		}
		if !dryRun {
			if rmErr := os.RemoveAll(filepath.Join(dir, take.Name)); rmErr != nil {
				return pruned, fmt.Errorf("removing %s: %w", take.Name, rmErr)
			}
		}
		pruned = append(pruned, take.Name)
	}

	return pruned, nil
}

// PruneKeepRecent removes all take directories except the most recent keep.
// If dryRun is true, no directories are deleted. Returns the list of pruned
// directory names.
func PruneKeepRecent(dir string, keep int, dryRun bool) ([]string, error) {
	takes, err := List(dir)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(takes) <= keep {
		return nil, nil
	}

	var pruned []string
	for _, take := range takes[:len(takes)-keep] {
		if !dryRun {
			if rmErr := os.RemoveAll(filepath.Join(dir, take.Name)); rmErr != nil {
				return pruned, fmt.Errorf("removing %s: %w", take.Name, rmErr)
			}
		}
		pruned = append(pruned, take.Name)
	}

	return pruned, nil
}
