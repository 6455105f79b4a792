// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

// UpdateAllReferences resolves the full rewrite map over all ledger keys,
// applies it to local bookmarks and working-copy pointers, and then updates
// head_ids, mirroring repo.rs's update_rewritten_references (update_all_
// references followed by update_heads), per §4.7.
func (r *MutableRepo) UpdateAllReferences(ctx context.Context, opts RewriteRefOptions) error {
	m := r.ResolveRewriteMappingWith(func(ids.CommitId) bool { return true })
	if err := r.updateLocalBookmarks(m, opts); err != nil {
		return err
	}
	if err := r.updateWorkingCopies(ctx, m); err != nil {
		return err
	}
	return r.UpdateHeads(ctx)
}

func (r *MutableRepo) updateLocalBookmarks(m map[ids.CommitId][]ids.CommitId, opts RewriteRefOptions) error {
	v := r.view
	for _, name := range view.SortedBookmarkNames(v.LocalBookmarks) {
		target := v.LocalBookmarks[name]
		candidate, changed := r.retargetAgainstMapping(target, m, opts)
		if !changed {
			continue
		}
		// The 3-way merge described in §4.7 reconciles the rewritten
		// candidate against a concurrently-modified "current" target,
		// using the pre-rewrite target as base. Within a single
		// transform pass nothing else has touched the bookmark between
		// base and "current", so base == other and the merge collapses
		// to the candidate outright; concurrent bookmark edits across
		// transactions are reconciled separately, in MergeView (§4.10).
		v.LocalBookmarks[name] = refs.MergeRefTargets(r.index, candidate, target, target)
	}
	return nil
}

// retargetAgainstMapping rebuilds target's added ids through m, per the
// "intersperse new/old" construction in §4.7: for every added old id with a
// ledger entry, the replacement ids are interleaved with the old id as
// bases (new1, old, new2, old, ..., newk), forming a k-way merge that is
// then 3-way merged against the original target with the "old-only"
// target as the base. Returns the merged candidate target and whether any
// added id actually needed rewriting.
func (r *MutableRepo) retargetAgainstMapping(target refs.RefTarget, m map[ids.CommitId][]ids.CommitId, opts RewriteRefOptions) (refs.RefTarget, bool) {
	adds := target.AddedIds()
	changed := false
	var merged []*ids.CommitId

	for _, old := range adds {
		news, ok := m[old]
		if !ok {
			c := old
			merged = append(merged, &c)
			continue
		}
		changed = true
		if opts.DeleteAbandonedBookmarks {
			if _, isAbandoned := r.parentMapping[old].(Abandoned); isAbandoned {
				merged = append(merged, nil)
				continue
			}
		}
		if len(news) == 0 {
			merged = append(merged, nil)
			continue
		}
		for i, n := range news {
			if i > 0 {
				o := old
				merged = append(merged, &o)
			}
			nn := n
			merged = append(merged, &nn)
		}
	}
	if !changed {
		return target, false
	}
	if len(merged) == 0 {
		return refs.Absent(), true
	}
	return refs.FromMerge(merged), true
}

func (r *MutableRepo) updateWorkingCopies(ctx context.Context, m map[ids.CommitId][]ids.CommitId) error {
	v := r.view
	freshEmptyCommits := make(map[ids.CommitId]ids.CommitId)

	for ws, old := range v.WCCommitIDs {
		news, ok := m[old]
		if !ok {
			continue
		}
		if _, isAbandoned := r.parentMapping[old].(Abandoned); isAbandoned {
			fresh, ok := freshEmptyCommits[old]
			if !ok {
				c, err := r.newEmptyWorkingCopyCommit(ctx, news)
				if err != nil {
					return err
				}
				fresh = ids.NewCommitId(c.Hash)
				freshEmptyCommits[old] = fresh
			}
			v.WCCommitIDs[ws] = fresh
			continue
		}
		if len(news) > 0 {
			v.WCCommitIDs[ws] = news[0]
		}
	}
	return nil
}

// newEmptyWorkingCopyCommit writes a fresh, empty (no tree change, no
// description) commit on top of newParents, used when a working-copy
// pointer was sitting on a commit that got abandoned.
func (r *MutableRepo) newEmptyWorkingCopyCommit(ctx context.Context, newParents []ids.CommitId) (*object.Commit, error) {
	tree, err := (&CommitRewriter{repo: r, old: &object.Commit{}, treeMerger: DefaultTreeMerger{}}).mergedParentTree(ctx, newParents)
	if err != nil {
		return nil, err
	}
	hashes := make([]plumbing.Hash, 0, len(newParents))
	for _, p := range newParents {
		hashes = append(hashes, p.Hash())
	}
	nc := object.NewCommit(plumbing.Hash{}, tree, hashes, object.Signature{}, object.Signature{}, "")
	nc.SetBackend(r.backend)
	oid, err := r.backend.WriteEncoded(nc)
	if err != nil {
		return nil, err
	}
	return r.backend.Commit(ctx, oid)
}

// UpdateHeads removes every ledger key from head_ids and adds back any
// parent of a rewritten commit that is not itself a ledger key, per §4.7.
func (r *MutableRepo) UpdateHeads(ctx context.Context) error {
	v := r.view
	keys := make(map[ids.CommitId]bool, len(r.parentMapping))
	for k := range r.parentMapping {
		keys[k] = true
		delete(v.HeadIDs, k)
	}
	for k := range r.parentMapping {
		parents, err := r.index.Parents(ctx, k)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if !keys[p] {
				v.HeadIDs[p] = true
			}
		}
	}
	return nil
}
