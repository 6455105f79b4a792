// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package command implements the thin drivers described in §4.12:
// abandon, restore, diffedit and split. Each is a small sequence over
// the public core operations (mutablerepo.MutableRepo, transaction.Transaction)
// already built up by the lower layers; this package adds no new rewrite
// semantics of its own.
package command

import (
	"fmt"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
)

// CheckRewritable asserts that none of ids names the root commit, the
// fail-fast check every driver below runs before touching the ledger.
// MutableRepo itself also refuses this (rewriteRootCommitPanic), but a
// driver checks up front so it can return a plain error instead of
// relying on that panic.
func CheckRewritable(commits []ids.CommitId) error {
	for _, c := range commits {
		if c.IsRoot() {
			return fmt.Errorf("the root commit %s is immutable", c)
		}
	}
	return nil
}

// BookmarkDiff describes one local bookmark whose target changed (or
// disappeared) across a driver's transform_descendants_with_options call,
// mirroring the before/after comparison abandon.rs and restore.rs print
// to the user ("Deleted bookmarks: ...", "Moved bookmarks: ...").
type BookmarkDiff struct {
	Name     string
	Deleted  bool
	OldHeads []ids.CommitId
	NewHeads []ids.CommitId
}

// DiffLocalBookmarks compares two LocalBookmarks snapshots (taken before
// and after a rewrite) and reports every bookmark whose resolved heads
// changed, in sorted name order.
func DiffLocalBookmarks(before, after map[string][]ids.CommitId) []BookmarkDiff {
	names := make(map[string]bool, len(before)+len(after))
	for n := range before {
		names[n] = true
	}
	for n := range after {
		names[n] = true
	}
	var out []BookmarkDiff
	for _, name := range sortedNames(names) {
		b, a := before[name], after[name]
		if idsEqual(b, a) {
			continue
		}
		out = append(out, BookmarkDiff{
			Name:     name,
			Deleted:  len(a) == 0 && len(b) > 0,
			OldHeads: b,
			NewHeads: a,
		})
	}
	return out
}

func sortedNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func idsEqual(a, b []ids.CommitId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// snapshotLocalBookmarks captures every local bookmark's resolved (possibly
// conflicted, hence the slice) heads, for DiffLocalBookmarks to compare
// against once a driver has rewritten the repo.
func snapshotLocalBookmarks(repo *mutablerepo.MutableRepo) map[string][]ids.CommitId {
	v := repo.View()
	out := make(map[string][]ids.CommitId, len(v.LocalBookmarks))
	for name, target := range v.LocalBookmarks {
		out[name] = target.AddedIds()
	}
	return out
}
