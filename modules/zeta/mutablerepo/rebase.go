// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// EmptyBehaviour controls what rebase_commit_with_options does when a
// single-parent rebase would produce a commit whose tree no longer differs
// from its new parent's tree.
type EmptyBehaviour int

const (
	// EmptyBehaviourKeep always writes the rebased commit, even if empty.
	EmptyBehaviourKeep EmptyBehaviour = iota
	// EmptyBehaviourAbandon drops the commit (records it Abandoned) when
	// the rebase emptied it and it has exactly one new parent.
	EmptyBehaviourAbandon
)

// RebaseOptions bundles rebase_commit_with_options' knobs.
type RebaseOptions struct {
	Empty       EmptyBehaviour
	RewriteRefs RewriteRefOptions
}

// RebasedCommitKind distinguishes the three outcomes progress() reports
// per rebased commit.
type RebasedCommitKind int

const (
	RebasedCommitWritten RebasedCommitKind = iota
	RebasedCommitRewritten
	RebasedCommitAbandonedEmpty
)

// ProgressFunc is invoked once per visited commit with its outcome.
type ProgressFunc func(old *object.Commit, kind RebasedCommitKind, newCommit *object.Commit)

// RebaseOrReparentDescendantsWithOptions is the general rebase driver
// described in §4.8: for each descendant of the ledger's keys, callers
// opt into a plain parent-swap (reparent, content preserved verbatim) via
// shouldRestore, or otherwise a full rebase that may abandon an emptied
// single-parent commit per options.Empty. parentMapping is cleared only
// after the whole pass succeeds — the sole path that clears it.
func (r *MutableRepo) RebaseOrReparentDescendantsWithOptions(
	ctx context.Context,
	options RebaseOptions,
	tm TreeMerger,
	shouldRestore func(old ids.CommitId) bool,
	progress ProgressFunc,
) (int, error) {
	roots := make([]ids.CommitId, 0, len(r.parentMapping))
	for k := range r.parentMapping {
		roots = append(roots, k)
	}
	count := 0
	err := r.TransformDescendantsWithOptions(ctx, roots, nil, TransformOptions{RewriteRefs: options.RewriteRefs}, tm, func(ctx context.Context, rw *CommitRewriter) error {
		if !rw.ParentsChanged() {
			return nil
		}
		if shouldRestore != nil && shouldRestore(ids.NewCommitId(rw.OldCommit().Hash)) {
			nc, err := rw.Reparent(ctx)
			if err != nil {
				return err
			}
			count++
			if progress != nil {
				progress(rw.OldCommit(), RebasedCommitRewritten, nc)
			}
			return nil
		}
		return r.rebaseCommitWithOptions(ctx, rw, options, progress, &count)
	})
	if err != nil {
		return count, err
	}
	r.parentMapping = make(map[ids.CommitId]Rewrite)
	return count, nil
}

func (r *MutableRepo) rebaseCommitWithOptions(ctx context.Context, rw *CommitRewriter, options RebaseOptions, progress ProgressFunc, count *int) error {
	nc, conflicted, err := rw.Rebase(ctx)
	if err != nil {
		return err
	}
	if options.Empty == EmptyBehaviourAbandon && !conflicted && len(rw.NewParentIDs()) == 1 && nc.Tree == rw.OldCommit().Tree {
		r.RecordAbandonedCommitWithParents(ids.NewCommitId(rw.OldCommit().Hash), rw.NewParentIDs())
		if progress != nil {
			progress(rw.OldCommit(), RebasedCommitAbandonedEmpty, nil)
		}
		return nil
	}
	*count++
	if progress != nil {
		progress(rw.OldCommit(), RebasedCommitWritten, nc)
	}
	return nil
}

// RebaseDescendants rebases every descendant of the ledger's keys, never
// restoring (plain rebase everywhere), and returns the number rebased.
func (r *MutableRepo) RebaseDescendants(ctx context.Context, tm TreeMerger) (int, error) {
	return r.RebaseOrReparentDescendantsWithOptions(ctx, RebaseOptions{}, tm, nil, nil)
}

// ReparentDescendants reparents every descendant of the ledger's keys
// (always restoring, content preserved verbatim) and returns the number
// reparented.
func (r *MutableRepo) ReparentDescendants(ctx context.Context, tm TreeMerger) (int, error) {
	return r.RebaseOrReparentDescendantsWithOptions(ctx, RebaseOptions{}, tm, func(ids.CommitId) bool { return true }, nil)
}
