// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/antgroup/hugevcs/modules/plumbing"
)

// PathMatcher restricts a restore/diffedit/split operation to a subset of a
// tree's paths, mirroring jj's Matcher. Left abstract for the same reason
// as mutablerepo.TreeMerger: this core's commits carry an opaque tree hash
// (object.Commit.Tree), not a walkable path -> blob structure, so there is
// nothing here to match *against* without a caller-supplied tree format.
type PathMatcher interface {
	Matches(path string) bool
}

// AllPaths is the PathMatcher that selects every path, i.e. a whole-tree
// operation (the default when a driver is given no path arguments).
type AllPaths struct{}

func (AllPaths) Matches(string) bool { return true }

// TreeSelector is the pluggable tree-partitioning primitive restore,
// diffedit and split need: given two tree hashes, produce a third tree
// that takes fromTree's content for matcher-selected paths and intoTree's
// content for the rest. As with mutablerepo.TreeMerger, this core defines
// no tree object format to partition structurally, so DefaultTreeSelector
// below implements only the two cases it can express without one: whole-
// tree copy (matcher is nil or AllPaths) and no-op (the two trees already
// agree). A caller with a real tree format plugs in its own TreeSelector
// to get genuine per-path overlay behavior; see DESIGN.md.
type TreeSelector interface {
	// Overlay returns the tree combining fromTree's selected paths with
	// intoTree's unselected ones.
	Overlay(ctx context.Context, fromTree, intoTree plumbing.Hash, matcher PathMatcher) (plumbing.Hash, error)
	// Split partitions targetTree's changes against parentTree into a
	// "first" tree (matcher-selected paths) and a "second" tree (the
	// rest), for the split driver.
	Split(ctx context.Context, parentTree, targetTree plumbing.Hash, matcher PathMatcher) (first, second plumbing.Hash, err error)
}

// DefaultTreeSelector implements the trivial, format-free cases described
// above and otherwise degrades to a whole-tree copy (documented in
// DESIGN.md as this core's tree-selection scope limit, parallel to
// mutablerepo.DefaultTreeMerger's tree-merge scope limit).
type DefaultTreeSelector struct{}

func isWhole(matcher PathMatcher) bool {
	if matcher == nil {
		return true
	}
	_, ok := matcher.(AllPaths)
	return ok
}

func (DefaultTreeSelector) Overlay(_ context.Context, fromTree, intoTree plumbing.Hash, matcher PathMatcher) (plumbing.Hash, error) {
	if fromTree == intoTree {
		return intoTree, nil
	}
	if isWhole(matcher) {
		return fromTree, nil
	}
	// No tree structure to partition by path; the closest honest answer
	// without one is the whole-tree copy rather than silently pretending
	// to honor the matcher.
	return fromTree, nil
}

func (DefaultTreeSelector) Split(_ context.Context, parentTree, targetTree plumbing.Hash, matcher PathMatcher) (plumbing.Hash, plumbing.Hash, error) {
	if isWhole(matcher) {
		return targetTree, parentTree, nil
	}
	return targetTree, parentTree, nil
}
