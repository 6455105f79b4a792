// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
)

// SplitOptions controls split(), per §4.12's open-question resolution
// (DESIGN.md): LegacyBookmarkBehavior reproduces the original
// split.legacy-bookmark-behavior=true path (set_rewritten_commit so
// bookmarks/wc follow the second commit through the ordinary rewrite
// ledger and its update_all_references pass); the default (false) moves
// them explicitly instead, leaving the ledger untouched.
type SplitOptions struct {
	FirstPaths             PathMatcher
	Parallel               bool
	LegacyBookmarkBehavior bool
	Selector               TreeSelector
}

// SplitResult is the pair of commits split() produced, plus how many
// descendants were rebased onto the second one.
type SplitResult struct {
	First, Second *object.Commit
	Rebased       int
}

// Split implements §4.12's split(target, firstPaths): target's tree is
// partitioned by FirstPaths into "first" (kept on target's own parents,
// taking target's description) and "second" (also taking target's
// description: stacked on first with target's whole tree, or, when
// Parallel, on target's own parents with the remainder). target's
// descendants — and, outside the legacy path, its workspace wc pointers —
// are then moved onto second. Both commits are written detached
// (mutablerepo.CommitBuilder.Detach): target maps to two replacements, so
// neither write should unilaterally claim the rewrite ledger's single
// "old -> new" slot for it.
func Split(ctx context.Context, repo *mutablerepo.MutableRepo, target *object.Commit, opts SplitOptions) (*SplitResult, error) {
	targetID := ids.NewCommitId(target.Hash)
	if err := CheckRewritable([]ids.CommitId{targetID}); err != nil {
		return nil, err
	}
	selector := opts.Selector
	if selector == nil {
		selector = DefaultTreeSelector{}
	}

	parentIDs := make([]ids.CommitId, 0, len(target.Parents))
	for _, p := range target.Parents {
		parentIDs = append(parentIDs, ids.NewCommitId(p))
	}
	parentTree, err := mutablerepo.MergedParentTree(ctx, repo.Backend(), parentIDs, target.Tree)
	if err != nil {
		return nil, err
	}
	firstTree, secondTree, err := selector.Split(ctx, parentTree, target.Tree, opts.FirstPaths)
	if err != nil {
		return nil, err
	}

	first, err := repo.RewriteCommit(target).Detach().SetTreeID(firstTree).Write(ctx)
	if err != nil {
		return nil, err
	}

	secondParents := []ids.CommitId{ids.NewCommitId(first.Hash)}
	if opts.Parallel {
		secondParents = parentIDs
	} else {
		// Stacked on first, second holds first's changes plus the rest,
		// which is target's own tree.
		secondTree = target.Tree
	}
	second, err := repo.RewriteCommit(target).Detach().
		SetParents(secondParents).
		SetTreeID(secondTree).
		SetMessage(target.Message).
		Write(ctx)
	if err != nil {
		return nil, err
	}
	firstID, secondID := ids.NewCommitId(first.Hash), ids.NewCommitId(second.Hash)

	if opts.LegacyBookmarkBehavior {
		repo.SetRewrittenCommit(targetID, secondID)
	}

	// Descendants still record target as their parent (neither write above
	// touched the ledger). In the legacy case update_all_references will
	// separately pick up the ledger entry above and move bookmarks/wc; the
	// descendant rebase itself is always driven explicitly here so a
	// Parallel split can hand a descendant both first and second as
	// parents, which a single ledger slot cannot express.
	rebased := 0
	err = repo.TransformDescendants(ctx, []ids.CommitId{targetID}, nil,
		func(ctx context.Context, rewriter *mutablerepo.CommitRewriter) error {
			rebased++
			if opts.Parallel {
				rewriter.ReplaceParent(targetID, []ids.CommitId{firstID, secondID})
			} else {
				rewriter.ReplaceParent(targetID, []ids.CommitId{secondID})
			}
			_, _, err := rewriter.Rebase(ctx)
			return err
		})
	if err != nil {
		return nil, err
	}

	if !opts.LegacyBookmarkBehavior {
		v := repo.View()
		for ws, wc := range v.WCCommitIDs {
			if wc == targetID {
				v.WCCommitIDs[ws] = secondID
			}
		}
		for name, t := range v.LocalBookmarks {
			if resolved, ok := t.AsNormal(); ok && resolved == targetID {
				v.LocalBookmarks[name] = refs.Normal(secondID)
			}
		}
	}

	return &SplitResult{First: first, Second: second, Rebased: rebased}, nil
}
