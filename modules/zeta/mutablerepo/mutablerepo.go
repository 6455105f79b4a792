// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mutablerepo implements the transactional core of the VCS engine:
// the rewrite ledger, descendant rebasing, reference updates and view
// merging a single transaction performs against a repository, grounded on
// original_source/lib/src/repo.rs's MutableRepo.
package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

// Rewrite is one entry of the rewrite ledger: what happened to an old
// commit id during the lifetime of a transaction.
type Rewrite interface {
	// NewParentIDs returns the commit ids descendants should adopt as
	// parents in place of the old commit, or nil if this entry declines
	// to participate in automatic rebasing (Divergent).
	NewParentIDs() []ids.CommitId
	isRewrite()
}

// Rewritten records that old was replaced by a single new commit.
type Rewritten struct{ New ids.CommitId }

func (r Rewritten) NewParentIDs() []ids.CommitId { return []ids.CommitId{r.New} }
func (Rewritten) isRewrite()                     {}

// Divergent records that old was replaced by multiple commits sharing its
// change id. Descendants are not auto-rebased: NewParentIDs returns nil so
// callers treat this id as opaque (new_parents keeps pointing at it).
type Divergent struct{ New []ids.CommitId }

func (Divergent) NewParentIDs() []ids.CommitId { return nil }
func (Divergent) isRewrite()                   {}

// Abandoned records that old was dropped; descendants rebase onto Parents.
type Abandoned struct{ Parents []ids.CommitId }

func (a Abandoned) NewParentIDs() []ids.CommitId { return a.Parents }
func (Abandoned) isRewrite()                     {}

// Backend is the commit-store capability MutableRepo needs to read
// existing commits and to publish new ones written by a CommitBuilder.
type Backend interface {
	object.Backend
	WriteEncoded(e object.Encoder) (plumbing.Hash, error)
}

// MutableRepo is the transactional state one in-flight operation mutates.
// It owns the view and the rewrite ledger exclusively for the duration of
// the transaction; nothing is durable until Transaction.Finish.
type MutableRepo struct {
	backend Backend
	index   index.MutableIndex
	view    *view.View

	// parentMapping is the rewrite ledger: old commit id -> what happened
	// to it. Never contains ids.RootCommitId.
	parentMapping map[ids.CommitId]Rewrite

	// commitPredecessors records, independent of the ledger, which
	// commits a given commit was derived from. Preserved across
	// rebase_descendants (never cleared by it, unlike parentMapping).
	commitPredecessors map[ids.CommitId][]ids.CommitId

	cell dirtyCell
}

// New creates a MutableRepo from a frozen view snapshot (cloned so the
// caller's copy is unaffected) and a mutable index seeded from it.
func New(backend Backend, idx index.MutableIndex, base *view.View) *MutableRepo {
	return &MutableRepo{
		backend:            backend,
		index:              idx,
		view:               base.Clone(),
		parentMapping:      make(map[ids.CommitId]Rewrite),
		commitPredecessors: make(map[ids.CommitId][]ids.CommitId),
	}
}

func (r *MutableRepo) Backend() Backend   { return r.backend }
func (r *MutableRepo) Index() index.Index { return r.index }

// View returns the current view, re-validating its structural invariants
// first (the dirty-cell re-check described in §4.2). Panics if called
// reentrantly from within an outstanding View() borrow.
func (r *MutableRepo) View() *view.View {
	r.cell.borrow()
	defer r.cell.release()
	view.EnforceInvariants(r.index, r.view)
	return r.view
}

// setRewrite is the shared insertion path for every ledger-writing method:
// it enforces the "never maps the root commit" guarantee and lets
// successive writes for the same old id overwrite (last write wins).
func (r *MutableRepo) setRewrite(old ids.CommitId, rw Rewrite) {
	if old.IsRoot() {
		panic(&rewriteRootCommitPanic{action: "rewrite"})
	}
	r.parentMapping[old] = rw
}

// SetRewrittenCommit records that old was replaced by newID.
func (r *MutableRepo) SetRewrittenCommit(old, newID ids.CommitId) {
	r.setRewrite(old, Rewritten{New: newID})
}

// SetDivergentRewrite records that old was replaced by several commits
// sharing its change id.
func (r *MutableRepo) SetDivergentRewrite(old ids.CommitId, news []ids.CommitId) {
	r.setRewrite(old, Divergent{New: news})
}

// RecordAbandonedCommit records that commit was dropped, with its stored
// parents as the rebase target for its descendants.
func (r *MutableRepo) RecordAbandonedCommit(ctx context.Context, commit ids.CommitId) error {
	parents, err := r.index.Parents(ctx, commit)
	if err != nil {
		return err
	}
	r.RecordAbandonedCommitWithParents(commit, parents)
	return nil
}

// RecordAbandonedCommitWithParents records commit as abandoned with an
// explicit replacement parent list, rather than the commit's own stored
// parents.
func (r *MutableRepo) RecordAbandonedCommitWithParents(commit ids.CommitId, newParents []ids.CommitId) {
	r.setRewrite(commit, Abandoned{Parents: newParents})
}

// SetPredecessors records id's predecessor set independently of the
// rewrite ledger; rebase_descendants never clears this map.
func (r *MutableRepo) SetPredecessors(id ids.CommitId, predecessors []ids.CommitId) {
	r.commitPredecessors[id] = predecessors
}

// Predecessors returns the recorded predecessor set for id, if any.
func (r *MutableRepo) Predecessors(id ids.CommitId) ([]ids.CommitId, bool) {
	p, ok := r.commitPredecessors[id]
	return p, ok
}

// rewriteRootCommitPanic is the internal assertion-failure panic value for
// any attempt to rewrite or abandon the root commit; recovered only at the
// transaction boundary (see modules/zeta's TransactionCommitError).
type rewriteRootCommitPanic struct{ action string }

func (e *rewriteRootCommitPanic) Error() string {
	return "cannot " + e.action + " the root commit"
}
