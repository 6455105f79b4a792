// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
)

// RewriteRefOptions controls how update_all_references treats bookmarks
// pointing at abandoned commits, per §4.7.
type RewriteRefOptions struct {
	DeleteAbandonedBookmarks bool
}

// TransformOptions bundles the knobs transform_descendants_with_options
// threads through to the reference-update pass that follows the visitor
// loop.
type TransformOptions struct {
	RewriteRefs RewriteRefOptions
}

// TransformCallback is invoked once per descendant, in dependency order,
// with a CommitRewriter already carrying the computed new parent ids. It
// returns nil to leave the commit untouched.
type TransformCallback func(ctx context.Context, rewriter *CommitRewriter) error

// TransformDescendants is the no-overrides convenience form of
// TransformDescendantsWithOptions.
func (r *MutableRepo) TransformDescendants(ctx context.Context, roots []ids.CommitId, tm TreeMerger, cb TransformCallback) error {
	return r.TransformDescendantsWithOptions(ctx, roots, nil, TransformOptions{}, tm, cb)
}

// TransformDescendantsWithOptions visits every descendant of roots exactly
// once, in the order computed by FindDescendantsForRebase +
// OrderCommitsForRebase, handing each a CommitRewriter whose new parent ids
// already reflect both the caller-supplied overrides and the rewrite
// ledger (§4.4). parentMapping is deliberately left untouched afterward:
// commits the callback writes may themselves need rebasing in a later
// call. update_all_references runs once at the end, per §4.6/§4.7.
func (r *MutableRepo) TransformDescendantsWithOptions(
	ctx context.Context,
	roots []ids.CommitId,
	overrides map[ids.CommitId][]ids.CommitId,
	opts TransformOptions,
	tm TreeMerger,
	cb TransformCallback,
) error {
	if tm == nil {
		tm = DefaultTreeMerger{}
	}
	heads := r.View().HeadsSorted()
	toVisit, err := r.FindDescendantsForRebase(ctx, roots, heads)
	if err != nil {
		return err
	}
	order, err := r.OrderCommitsForRebase(ctx, toVisit, overrides)
	if err != nil {
		return err
	}

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		old, err := r.backend.Commit(ctx, id.Hash())
		if err != nil {
			return err
		}
		oldParentIDs := make([]ids.CommitId, 0, len(old.Parents))
		for _, p := range old.Parents {
			oldParentIDs = append(oldParentIDs, ids.NewCommitId(p))
		}
		newParentIDs := r.NewParents(oldParentIDs)
		if mapped, ok := overrides[id]; ok {
			newParentIDs = mapped
		}
		rewriter := newCommitRewriter(r, old, newParentIDs, tm)
		if err := cb(ctx, rewriter); err != nil {
			return err
		}
	}

	return r.UpdateAllReferences(ctx, opts.RewriteRefs)
}
