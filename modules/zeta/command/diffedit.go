// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// DiffEditor is the out-of-scope, interface-only collaborator §4.12
// describes for diffedit: something that shows a human (or a scripted
// tool) target's working tree restricted to matcher and returns the tree
// id they end up with. No default implementation is provided — wiring an
// actual editor (terminal UI, external diff tool) is outside this core.
type DiffEditor interface {
	Edit(ctx context.Context, target *object.Commit, matcher PathMatcher) (plumbing.Hash, error)
}

// Diffedit implements §4.12's diffedit(target, pathMatcher): identical in
// shape to Restore, including the restoreDescendants/restoreSnapshotsOf
// knobs for which descendants get their snapshot reparented rather than
// rebased, except the new tree comes from an external DiffEditor rather
// than another commit's tree.
func Diffedit(
	ctx context.Context,
	repo *mutablerepo.MutableRepo,
	target *object.Commit,
	matcher PathMatcher,
	editor DiffEditor,
	restoreDescendants bool,
	restoreSnapshotsOf []ids.CommitId,
) (*RestoreResult, error) {
	targetID := ids.NewCommitId(target.Hash)
	if err := CheckRewritable([]ids.CommitId{targetID}); err != nil {
		return nil, err
	}

	newTree, err := editor.Edit(ctx, target, matcher)
	if err != nil {
		return nil, err
	}
	if newTree == target.Tree {
		return &RestoreResult{}, nil
	}

	if _, err := repo.RewriteCommit(target).SetTreeID(newTree).Write(ctx); err != nil {
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
