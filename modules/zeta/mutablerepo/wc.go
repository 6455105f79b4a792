// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

func isEmptyAgainstParent(old *object.Commit, parentTree plumbing.Hash) bool {
	return old.Tree == parentTree
}

// MaybeAbandonWcCommit implements §4.9: when workspace's working-copy
// pointer is about to move away from leaving, leaving is recorded
// Abandoned (rather than just left as a dangling head) iff it is
// content-empty relative to its parent, has no description, is not
// referenced by any bookmark or any other workspace's working copy, and
// is currently a head.
func (r *MutableRepo) MaybeAbandonWcCommit(ctx context.Context, workspace string, leaving *object.Commit) error {
	leavingID := ids.NewCommitId(leaving.Hash)
	if leavingID.IsRoot() {
		return nil
	}
	if leaving.Message != "" {
		return nil
	}
	if len(leaving.Parents) > 1 {
		return nil
	}
	if len(leaving.Parents) == 1 {
		parent, err := r.backend.Commit(ctx, leaving.Parents[0])
		if err != nil {
			return err
		}
		if !isEmptyAgainstParent(leaving, parent.Tree) {
			return nil
		}
	}
	if r.isReferencedElsewhere(workspace, leavingID) {
		return nil
	}
	if !r.view.HeadIDs[leavingID] {
		return nil
	}
	return r.RecordAbandonedCommit(ctx, leavingID)
}

func (r *MutableRepo) isReferencedElsewhere(workspace string, id ids.CommitId) bool {
	for _, t := range r.view.LocalBookmarks {
		for _, a := range t.AddedIds() {
			if a == id {
				return true
			}
		}
	}
	for _, t := range r.view.Tags {
		for _, a := range t.AddedIds() {
			if a == id {
				return true
			}
		}
	}
	for ws, wcID := range r.view.WCCommitIDs {
		if ws != workspace && wcID == id {
			return true
		}
	}
	return false
}
