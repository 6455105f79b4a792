// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// RestoreResult reports how many descendants of into were rebased, split
// between ones whose content restore.rs preserves verbatim (reparented)
// and the rest (rebased).
type RestoreResult struct {
	Reparented int
	Rebased    int
}

// Restore implements §4.12's restore(from, into, pathMatcher): from's
// content (restricted to pathMatcher, the whole tree if nil) replaces
// into's, then into's descendants are rebased onto the new into. When
// restoreDescendants is set, or a descendant's id is in restoreSnapshotsOf,
// it is reparented instead (content preserved, only lineage rewritten) —
// the same should_restore split restore.rs's rebase_or_reparent_descendants
// call makes.
func Restore(
	ctx context.Context,
	repo *mutablerepo.MutableRepo,
	from, into *object.Commit,
	matcher PathMatcher,
	selector TreeSelector,
	restoreDescendants bool,
	restoreSnapshotsOf []ids.CommitId,
) (*RestoreResult, error) {
	intoID := ids.NewCommitId(into.Hash)
	if err := CheckRewritable([]ids.CommitId{intoID}); err != nil {
		return nil, err
	}
	if selector == nil {
		selector = DefaultTreeSelector{}
	}

	restoredTree, err := selector.Overlay(ctx, from.Tree, into.Tree, matcher)
	if err != nil {
		return nil, err
	}
	if restoredTree == into.Tree {
		return &RestoreResult{}, nil
	}

	if _, err := repo.RewriteCommit(into).SetTreeID(restoredTree).Write(ctx); err != nil {
		return nil, err
	}

	restoreSet := make(map[ids.CommitId]bool, len(restoreSnapshotsOf))
	for _, c := range restoreSnapshotsOf {
		restoreSet[c] = true
	}
	result := &RestoreResult{}
	_, err = repo.RebaseOrReparentDescendantsWithOptions(ctx, mutablerepo.RebaseOptions{Empty: mutablerepo.EmptyBehaviourKeep}, nil,
		func(old ids.CommitId) bool {
			return restoreDescendants || restoreSet[old]
		},
		func(_ *object.Commit, kind mutablerepo.RebasedCommitKind, _ *object.Commit) {
			if kind == mutablerepo.RebasedCommitRewritten {
				result.Reparented++
			} else {
				result.Rebased++
			}
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}
