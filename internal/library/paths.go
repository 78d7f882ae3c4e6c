// SPDX-License-Identifier: MIT

// Package library owns the on-disk clip tree: deterministic output paths,
// existence-based dedup, atomic clip writes, and retention pruning.
//
// The output path is the idempotence boundary. There is no separate index:
// a clip exists iff a regular file exists at its derived path. The filename
// encodes only the event's local start time, so two devices recording at the
// identical second would collide; in practice start times are distinct per
// account and the original layout is kept.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/nestsync/internal/nest"
)

// clipTimeLayout renders the event start in the tree's fixed zone. Colons are
// replaced by dashes so paths stay portable.
const clipTimeLayout = "2006-01-02T15-04-05"

// Tree maps events onto a date-partitioned directory structure rooted at a
// fixed local timezone, independent of the host zone.
type Tree struct {
	root string
	loc  *time.Location
}

// NewTree creates a Tree rooted at root, using loc for all path derivation
// and file times.
func NewTree(root string, loc *time.Location) *Tree {
	return &Tree{root: root, loc: loc}
}

// Root returns the tree's root directory.
func (t *Tree) Root() string {
	return t.root
}

// ClipPath derives the deterministic output path of an event:
// {root}/{YYYY}/{MM}/{DD}/{YYYY-MM-DDTHH-MM-SS}.mp4 in the tree's zone.
func (t *Tree) ClipPath(event nest.CameraEvent) string {
	local := event.StartTime.In(t.loc)
	return filepath.Join(
		t.root,
		fmt.Sprintf("%04d", local.Year()),
		fmt.Sprintf("%02d", int(local.Month())),
		fmt.Sprintf("%02d", local.Day()),
		local.Format(clipTimeLayout)+".mp4",
	)
}

// IsNew reports whether no clip has been captured for the event yet. A
// regular file at the derived path means "already captured"; anything else
// (absent, or a non-regular entry) means the event is new.
func (t *Tree) IsNew(event nest.CameraEvent) bool {
	info, err := os.Stat(t.ClipPath(event))
	if err != nil {
		return true
	}
	return !info.Mode().IsRegular()
}
