// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
)

// AbandonOptions mirrors abandon.rs's AbandonArgs: RetainBookmarks keeps a
// bookmark pointing at whatever an abandoned commit's descendants rebase
// onto instead of deleting it, and RestoreDescendants reparents (preserves
// content) rather than rebases (preserves diff) every descendant.
// RestoreSnapshotsOf reparents only the named descendants instead of all
// of them.
type AbandonOptions struct {
	RetainBookmarks    bool
	RestoreDescendants bool
	RestoreSnapshotsOf []ids.CommitId
}

// AbandonResult reports what abandon() actually did, for a command-line
// frontend to print the way cmd_abandon does.
type AbandonResult struct {
	Abandoned        int
	Reparented       int
	Rebased          int
	DeletedBookmarks []BookmarkDiff
}

// Abandon implements §4.12's abandon(revisions, retainBookmarks): each
// commit in revisions is recorded abandoned via record_abandoned_commit
// (adopting its own stored parents as the replacement), then every real
// descendant is rebased (or reparented, for RestoreDescendants / ones
// named in RestoreSnapshotsOf) onto the surviving parents. Local
// bookmarks pointing only at abandoned commits are either deleted
// (default) or left pointing at the rewritten replacement
// (RetainBookmarks).
func Abandon(ctx context.Context, repo *mutablerepo.MutableRepo, revisions []ids.CommitId, opts AbandonOptions) (*AbandonResult, error) {
	if err := CheckRewritable(revisions); err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		return &AbandonResult{}, nil
	}

	restoreSet := make(map[ids.CommitId]bool, len(opts.RestoreSnapshotsOf))
	for _, c := range opts.RestoreSnapshotsOf {
		restoreSet[c] = true
	}

	before := snapshotLocalBookmarks(repo)

	for _, c := range revisions {
		if err := repo.RecordAbandonedCommit(ctx, c); err != nil {
			return nil, err
		}
	}

	result := &AbandonResult{Abandoned: len(revisions)}
	transformOpts := mutablerepo.TransformOptions{
		RewriteRefs: mutablerepo.RewriteRefOptions{DeleteAbandonedBookmarks: !opts.RetainBookmarks},
	}
	err := repo.TransformDescendantsWithOptions(ctx, revisions, nil, transformOpts, nil,
		func(ctx context.Context, rewriter *mutablerepo.CommitRewriter) error {
			old := ids.NewCommitId(rewriter.OldCommit().Hash)
			if opts.RestoreDescendants || restoreSet[old] {
				if _, err := rewriter.Reparent(ctx); err != nil {
					return err
				}
				result.Reparented++
				return nil
			}
			_, _, err := rewriter.Rebase(ctx)
			if err != nil {
				return err
			}
			result.Rebased++
			return nil
		})
	if err != nil {
		return nil, err
	}

	after := snapshotLocalBookmarks(repo)
	for _, d := range DiffLocalBookmarks(before, after) {
		if d.Deleted {
			result.DeletedBookmarks = append(result.DeletedBookmarks, d)
		}
	}
	return result, nil
}
