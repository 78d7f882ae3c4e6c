// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/nestsync/internal/log"
	"github.com/ManuGH/nestsync/internal/nest"
)

// WriteClip stores a downloaded clip at the event's derived path and stamps
// the file times with the event start in the tree's zone, so pruning and
// external tooling reason by event time rather than download time.
//
// The write goes through renameio: a temp file in the target directory is
// written, fsynced, and atomically renamed. A crash mid-download therefore
// never leaves a truncated file at the dedup path.
func (t *Tree) WriteClip(ctx context.Context, event nest.CameraEvent, data []byte) error {
	logger := log.WithComponentFromContext(ctx, "library")
	path := t.ClipPath(event)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create date folder: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending clip file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending clip file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write clip data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace clip file: %w", err)
	}

	eventTime := event.StartTime.In(t.loc)
	if err := os.Chtimes(path, eventTime, eventTime); err != nil {
		return fmt.Errorf("set clip file times: %w", err)
	}
	return nil
}
