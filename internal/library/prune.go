// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/nestsync/internal/log"
	"github.com/ManuGH/nestsync/internal/metrics"
)

// PruneResult summarises one retention pass.
type PruneResult struct {
	Deleted int
	Kept    int
}

// Prune walks the clip tree and deletes clips whose modification time is
// older than now-maxAge. A zero maxAge disables pruning entirely. Per-file
// errors are logged and skipped; a prune pass never fails the daemon.
func (t *Tree) Prune(ctx context.Context, maxAge time.Duration) PruneResult {
	logger := log.WithComponentFromContext(ctx, "library")
	var result PruneResult
	if maxAge == 0 {
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	logger.Info().
		Str("event", "prune.start").
		Dur("max_age", maxAge).
		Msg("pruning clips older than retention cutoff")

	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to read directory entry")
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mp4") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to stat clip")
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("failed to delete clip")
				return nil
			}
			logger.Info().
				Str("event", "prune.deleted").
				Str("path", path).
				Msg("deleted old clip")
			result.Deleted++
			return nil
		}
		result.Kept++
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("event", "prune.walk_failed").Msg("prune walk aborted")
	}

	logger.Info().
		Str("event", "prune.complete").
		Int("deleted", result.Deleted).
		Int("kept", result.Kept).
		Msg("pruning complete")
	metrics.RecordPrune(result.Deleted, result.Kept)
	return result
}
