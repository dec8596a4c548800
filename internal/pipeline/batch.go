package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fraudshield/docintake/constants"
)

// BatchStats summarizes a directory intake.
type BatchStats struct {
	Scanned    uint32
	Matched    uint32
	Succeeded  uint32
	Duplicates uint32
	Failed     uint32
}

// BatchItem is the per-file outcome of a directory intake.
type BatchItem struct {
	Path   string
	Result Result
	Err    string
}

// AllowedExt checks if a file extension is in the allowed intake set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// ProcessDirectory walks root, skips hidden entries if requested, and runs
// Process for each matching file. Per-file failures are recorded, not
// propagated; the walk keeps going.
func (p *Intake) ProcessDirectory(ctx context.Context, root string, skipHidden bool) ([]BatchItem, BatchStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, BatchStats{}, errors.New("root path is required")
	}

	var items []BatchItem
	var stats BatchStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			items = append(items, BatchItem{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		res, err := p.Process(ctx, path)
		if err != nil {
			items = append(items, BatchItem{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		items = append(items, BatchItem{Path: path, Result: res})
		stats.Succeeded++
		if res.Duplicate.IsDuplicate {
			stats.Duplicates++
		}
		return nil
	})
	if err != nil {
		return items, stats, err
	}
	return items, stats, nil
}
