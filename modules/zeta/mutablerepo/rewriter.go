// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// TreeMerger is the pluggable tree-content-merge primitive invoked by
// rebase().write() when a commit's parents change underneath it. The tree
// format itself (a path -> blob mapping) is out of scope for this core;
// this interface lets a caller wire in whatever tree representation it
// uses. DefaultTreeMerger below implements the degenerate identity-only
// case for callers that have no richer tree format.
type TreeMerger interface {
	// Merge3 resolves the tree a caller should use for a commit whose old
	// tree was oldTree, old merged-parent tree was oldBase, and new
	// merged-parent tree is newBase. Returns the resulting tree and
	// whether the merge left unresolved conflicts baked into it.
	Merge3(ctx context.Context, oldTree, oldBase, newBase plumbing.Hash) (merged plumbing.Hash, conflicted bool, err error)
}

// DefaultTreeMerger implements the trivial cases of a 3-way tree merge
// (sides agreeing, or only one side having changed) and otherwise keeps
// the old tree verbatim and reports a conflict, since this core does not
// define a tree object format to merge structurally (see DESIGN.md).
type DefaultTreeMerger struct{}

func (DefaultTreeMerger) Merge3(_ context.Context, oldTree, oldBase, newBase plumbing.Hash) (plumbing.Hash, bool, error) {
	if oldBase == newBase {
		return oldTree, false, nil
	}
	if oldTree == oldBase {
		return newBase, false, nil
	}
	return oldTree, true, nil
}

// CommitRewriter is handed to a transform_descendants callback for exactly
// one old commit; it exposes the new parent ids that rewrite bookkeeping
// has already computed and lets the callback choose what to do about it.
type CommitRewriter struct {
	repo          *MutableRepo
	old           *object.Commit
	newParentIDs  []ids.CommitId
	oldParentIDs  []ids.CommitId
	treeMerger    TreeMerger
}

func newCommitRewriter(repo *MutableRepo, old *object.Commit, newParentIDs []ids.CommitId, tm TreeMerger) *CommitRewriter {
	oldParentIDs := make([]ids.CommitId, 0, len(old.Parents))
	for _, p := range old.Parents {
		oldParentIDs = append(oldParentIDs, ids.NewCommitId(p))
	}
	return &CommitRewriter{repo: repo, old: old, newParentIDs: newParentIDs, oldParentIDs: oldParentIDs, treeMerger: tm}
}

func (cr *CommitRewriter) OldCommit() *object.Commit    { return cr.old }
func (cr *CommitRewriter) NewParentIDs() []ids.CommitId { return cr.newParentIDs }

// ReplaceParent splices news in place of every occurrence of old in the
// computed new parent vector, for callers (split) that need to override
// one specific parent's replacement rather than accept the ledger's
// computed mapping wholesale.
func (cr *CommitRewriter) ReplaceParent(old ids.CommitId, news []ids.CommitId) {
	out := make([]ids.CommitId, 0, len(cr.newParentIDs)+len(news))
	for _, p := range cr.newParentIDs {
		if p == old {
			out = append(out, news...)
			continue
		}
		out = append(out, p)
	}
	cr.newParentIDs = out
}

// ParentsChanged reports whether the new parent vector differs from the
// commit's recorded parent vector, the gate rebase_descendants uses to
// decide whether a commit needs any work at all.
func (cr *CommitRewriter) ParentsChanged() bool {
	if len(cr.newParentIDs) != len(cr.oldParentIDs) {
		return true
	}
	for i := range cr.newParentIDs {
		if cr.newParentIDs[i] != cr.oldParentIDs[i] {
			return true
		}
	}
	return false
}

// Abandon records the old commit as abandoned with the computed new
// parents as its replacement, per §4.6.
func (cr *CommitRewriter) Abandon() {
	cr.repo.RecordAbandonedCommitWithParents(ids.NewCommitId(cr.old.Hash), cr.newParentIDs)
}

// Reparent writes a new commit with the old commit's tree verbatim but the
// new parent vector: content preserved, lineage rewritten. Per §4.6,
// "reparent().write()".
func (cr *CommitRewriter) Reparent(ctx context.Context) (*object.Commit, error) {
	return cr.write(ctx, cr.old.Tree)
}

// Rebase computes the 3-way-merged tree (old tree vs. the merge of old
// parents' trees vs. the merge of new parents' trees) via treeMerger and
// writes a new commit with it and the new parent vector. Per §4.6,
// "rebase().write()".
func (cr *CommitRewriter) Rebase(ctx context.Context) (*object.Commit, bool, error) {
	oldBase, err := cr.mergedParentTree(ctx, cr.oldParentIDs)
	if err != nil {
		return nil, false, err
	}
	newBase, err := cr.mergedParentTree(ctx, cr.newParentIDs)
	if err != nil {
		return nil, false, err
	}
	merged, conflicted, err := cr.treeMerger.Merge3(ctx, cr.old.Tree, oldBase, newBase)
	if err != nil {
		return nil, false, err
	}
	c, err := cr.write(ctx, merged)
	return c, conflicted, err
}

// mergedParentTree returns the tree of the sole parent when there is
// exactly one, or the old commit's own tree as a stand-in base when there
// are zero or multiple (a real multi-parent tree-of-trees merge is a
// further pluggable concern layered on top of TreeMerger, out of scope
// here).
func (cr *CommitRewriter) mergedParentTree(ctx context.Context, parentIDs []ids.CommitId) (plumbing.Hash, error) {
	return MergedParentTree(ctx, cr.repo.backend, parentIDs, cr.old.Tree)
}

// MergedParentTree returns the tree of the sole parent in parentIDs, or
// fallback when there are zero or multiple (a real multi-parent
// tree-of-trees merge is a further pluggable concern layered on top of
// TreeMerger, out of scope here). Exported so command drivers that need a
// commit's "parent tree" outside of a CommitRewriter (restore, diffedit)
// can share the same rule instead of re-deriving it.
func MergedParentTree(ctx context.Context, backend Backend, parentIDs []ids.CommitId, fallback plumbing.Hash) (plumbing.Hash, error) {
	if len(parentIDs) != 1 {
		return fallback, nil
	}
	if parentIDs[0].IsRoot() {
		return plumbing.ZeroHash, nil
	}
	c, err := backend.Commit(ctx, parentIDs[0].Hash())
	if err != nil {
		return plumbing.Hash{}, err
	}
	return c.Tree, nil
}

func (cr *CommitRewriter) write(ctx context.Context, tree plumbing.Hash) (*object.Commit, error) {
	parentHashes := make([]plumbing.Hash, 0, len(cr.newParentIDs))
	for _, p := range cr.newParentIDs {
		parentHashes = append(parentHashes, p.Hash())
	}
	nc := object.NewCommit(cr.old.Change, tree, parentHashes, cr.old.Author, cr.old.Committer, cr.old.Message)
	nc.SetBackend(cr.repo.backend)
	oid, err := cr.repo.backend.WriteEncoded(nc)
	if err != nil {
		return nil, err
	}
	written, err := cr.repo.backend.Commit(ctx, oid)
	if err != nil {
		return nil, err
	}
	cr.repo.index.AddCommit(ids.NewCommitId(written.Hash), cr.newParentIDs)
	// Per repo.rs's add_head: a rebased/reparented replacement becomes a
	// head outright. UpdateHeads (§4.7) removes the superseded old id (and
	// any other ledger key) from head_ids once this write registers the
	// rewrite below, and view.EnforceInvariants prunes any non-maximal
	// leftovers (e.g. a parent re-added by UpdateHeads that's an ancestor
	// of this new commit) on the next View() read.
	cr.repo.view.HeadIDs[ids.NewCommitId(written.Hash)] = true
	cr.repo.SetPredecessors(ids.NewCommitId(written.Hash), []ids.CommitId{ids.NewCommitId(cr.old.Hash)})
	cr.repo.SetRewrittenCommit(ids.NewCommitId(cr.old.Hash), ids.NewCommitId(written.Hash))
	return written, nil
}
