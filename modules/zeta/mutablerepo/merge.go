// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

// MergeView reconciles a concurrently-committed operation's view (other)
// against the view this MutableRepo started from (base), per §4.10.
func (r *MutableRepo) MergeView(ctx context.Context, base, other *view.View) error {
	r.mergeWorkingCopies(base, other)
	if err := r.mergeHeads(ctx, base, other); err != nil {
		return err
	}
	r.mergeNamedRefs(base, other)
	r.mergeRemoteRefs(base, other)
	r.view.GitHead = refs.MergeRefTargets(r.index, r.view.GitHead, base.GitHead, other.GitHead)
	return nil
}

func (r *MutableRepo) mergeWorkingCopies(base, other *view.View) {
	v := r.view
	workspaces := make(map[string]bool)
	for ws := range v.WCCommitIDs {
		workspaces[ws] = true
	}
	for ws := range base.WCCommitIDs {
		workspaces[ws] = true
	}
	for ws := range other.WCCommitIDs {
		workspaces[ws] = true
	}
	for ws := range workspaces {
		self, selfOK := v.WCCommitIDs[ws]
		baseID, baseOK := base.WCCommitIDs[ws]
		otherID, otherOK := other.WCCommitIDs[ws]

		switch {
		case !otherOK && baseOK:
			// removed on the other side
			delete(v.WCCommitIDs, ws)
		case otherOK && !selfOK:
			v.WCCommitIDs[ws] = otherID
		case selfOK && otherOK && self == baseID:
			v.WCCommitIDs[ws] = otherID
		case selfOK && otherOK && self != otherID && otherID != baseID:
			// genuine conflict: keep self
		}
	}
}

func (r *MutableRepo) mergeHeads(ctx context.Context, base, other *view.View) error {
	v := r.view
	baseHeads := base.HeadsSorted()
	ownHeads := v.HeadsSorted()
	otherHeads := other.HeadsSorted()

	if err := r.RecordRewrites(ctx, baseHeads, ownHeads); err != nil {
		return err
	}
	if err := r.RecordRewrites(ctx, baseHeads, otherHeads); err != nil {
		return err
	}

	merged := make(map[ids.CommitId]bool, len(v.HeadIDs))
	for id := range v.HeadIDs {
		merged[id] = true
	}
	baseSet := make(map[ids.CommitId]bool, len(baseHeads))
	for _, id := range baseHeads {
		baseSet[id] = true
	}
	for _, id := range otherHeads {
		merged[id] = true
	}
	for _, id := range baseHeads {
		if !contains(otherHeads, id) && !contains(ownHeads, id) {
			delete(merged, id)
		}
	}
	v.HeadIDs = merged
	view.EnforceInvariants(r.index, v)
	return nil
}

func contains(xs []ids.CommitId, x ids.CommitId) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (r *MutableRepo) mergeNamedRefs(base, other *view.View) {
	r.mergeRefMap(r.view.LocalBookmarks, base.LocalBookmarks, other.LocalBookmarks)
	r.mergeRefMap(r.view.Tags, base.Tags, other.Tags)
	r.mergeGitRefMap(r.view.GitRefs, base.GitRefs, other.GitRefs)
}

func (r *MutableRepo) mergeRefMap(self, base, other map[string]refs.RefTarget) {
	names := make(map[string]bool)
	for n := range self {
		names[n] = true
	}
	for n := range base {
		names[n] = true
	}
	for n := range other {
		names[n] = true
	}
	for n := range names {
		s := self[n]
		b := base[n]
		o := other[n]
		merged := refs.MergeRefTargets(r.index, s, b, o)
		if merged.IsAbsent() {
			delete(self, n)
			continue
		}
		self[n] = merged
	}
}

func (r *MutableRepo) mergeGitRefMap(self, base, other map[plumbing.ReferenceName]refs.RefTarget) {
	names := make(map[plumbing.ReferenceName]bool)
	for n := range self {
		names[n] = true
	}
	for n := range base {
		names[n] = true
	}
	for n := range other {
		names[n] = true
	}
	for n := range names {
		merged := refs.MergeRefTargets(r.index, self[n], base[n], other[n])
		if merged.IsAbsent() {
			delete(self, n)
			continue
		}
		self[n] = merged
	}
}

func (r *MutableRepo) mergeRemoteRefs(base, other *view.View) {
	v := r.view
	remotes := make(map[string]bool)
	for rn := range v.RemoteViews {
		remotes[rn] = true
	}
	for rn := range base.RemoteViews {
		remotes[rn] = true
	}
	for rn := range other.RemoteViews {
		remotes[rn] = true
	}
	for remote := range remotes {
		names := make(map[string]bool)
		for n := range v.RemoteViews[remote] {
			names[n] = true
		}
		for n := range base.RemoteViews[remote] {
			names[n] = true
		}
		for n := range other.RemoteViews[remote] {
			names[n] = true
		}
		if v.RemoteViews[remote] == nil {
			v.RemoteViews[remote] = make(map[string]refs.RemoteRef)
		}
		for n := range names {
			merged := refs.MergeRemoteRefs(r.index, v.RemoteViews[remote][n], base.RemoteViews[remote][n], other.RemoteViews[remote][n])
			v.RemoteViews[remote][n] = merged
		}
	}
}

// RecordRewrites implements record_rewrites (§4.10): walks the commits
// reachable from newHeads but not oldHeads, and vice versa, and for every
// pair of old/new commits sharing a change id records a Rewritten or
// Divergent ledger entry, or an Abandoned entry for change ids that
// disappeared outright.
func (r *MutableRepo) RecordRewrites(ctx context.Context, oldHeads, newHeads []ids.CommitId) error {
	removed, err := r.changeIDsUniqueTo(ctx, oldHeads, newHeads)
	if err != nil {
		return err
	}
	added, err := r.changeIDsUniqueTo(ctx, newHeads, oldHeads)
	if err != nil {
		return err
	}

	for changeHash, oldCommits := range removed {
		newCommits, ok := added[changeHash]
		if !ok {
			for _, old := range oldCommits {
				if err := r.RecordAbandonedCommit(ctx, old); err != nil {
					return err
				}
			}
			continue
		}
		for _, old := range oldCommits {
			if len(newCommits) == 1 {
				r.SetRewrittenCommit(old, newCommits[0])
			} else {
				r.SetDivergentRewrite(old, newCommits)
			}
		}
	}
	return nil
}

// changeIDsUniqueTo walks from..back, collecting (change id -> []commit id)
// for every commit reachable from `from` that is not reachable from `to`.
func (r *MutableRepo) changeIDsUniqueTo(ctx context.Context, from, to []ids.CommitId) (map[plumbing.Hash][]ids.CommitId, error) {
	reachableFromTo := make(map[ids.CommitId]bool)
	var collect func(ids.CommitId) error
	collect = func(id ids.CommitId) error {
		if reachableFromTo[id] || id.IsRoot() {
			return nil
		}
		reachableFromTo[id] = true
		parents, err := r.index.Parents(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if err := collect(p); err != nil {
				return err
			}
		}
		return nil
	}
	for _, h := range to {
		if err := collect(h); err != nil {
			return nil, err
		}
	}

	result := make(map[plumbing.Hash][]ids.CommitId)
	visited := make(map[ids.CommitId]bool)
	var walk func(ids.CommitId) error
	walk = func(id ids.CommitId) error {
		if visited[id] || reachableFromTo[id] || id.IsRoot() {
			return nil
		}
		visited[id] = true
		c, err := r.backend.Commit(ctx, id.Hash())
		if err != nil {
			return err
		}
		result[c.Change] = append(result[c.Change], id)
		parents, err := r.index.Parents(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if err := walk(p); err != nil {
				return err
			}
		}
		return nil
	}
	for _, h := range from {
		if err := walk(h); err != nil {
			return nil, err
		}
	}
	return result, nil
}
