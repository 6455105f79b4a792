package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/backend"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

func newRepo(t *testing.T) *mutablerepo.MutableRepo {
	t.Helper()
	db, err := backend.NewDatabase(t.TempDir())
	require.NoError(t, err)
	idx, err := index.New(db)
	require.NoError(t, err)
	return mutablerepo.New(db, idx, view.New())
}

func sig() object.Signature {
	return object.Signature{Name: "a", Email: "a@example.com"}
}

func writeTree(t *testing.T, n byte) plumbing.Hash {
	t.Helper()
	var h plumbing.Hash
	h[0] = n
	return h
}

func TestAbandonRebasesChildOntoGrandparent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "a").Write(ctx)
	require.NoError(t, err)
	aID := ids.NewCommitId(a.Hash)

	b, err := repo.NewCommit([]ids.CommitId{aID}, writeTree(t, 2), sig(), sig(), "b").Write(ctx)
	require.NoError(t, err)
	repo.AddHead(ids.NewCommitId(b.Hash))
	repo.RemoveHead(ids.RootCommitId)

	result, err := Abandon(ctx, repo, []ids.CommitId{aID}, AbandonOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Abandoned)
	require.Equal(t, 1, result.Rebased)

	heads := repo.View().HeadsSorted()
	require.Len(t, heads, 1)
	require.NotEqual(t, ids.NewCommitId(b.Hash), heads[0])
}

func TestAbandonRejectsRootCommit(t *testing.T) {
	repo := newRepo(t)
	_, err := Abandon(context.Background(), repo, []ids.CommitId{ids.RootCommitId}, AbandonOptions{})
	require.Error(t, err)
}

func TestRestoreReplacesTreeAndRebasesDescendants(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	from, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "from").Write(ctx)
	require.NoError(t, err)

	into, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 2), sig(), sig(), "into").Write(ctx)
	require.NoError(t, err)
	intoID := ids.NewCommitId(into.Hash)

	child, err := repo.NewCommit([]ids.CommitId{intoID}, writeTree(t, 3), sig(), sig(), "child").Write(ctx)
	require.NoError(t, err)
	repo.AddHead(ids.NewCommitId(child.Hash))
	repo.RemoveHead(ids.RootCommitId)

	result, err := Restore(ctx, repo, from, into, nil, nil, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Rebased)

	heads := repo.View().HeadsSorted()
	require.Len(t, heads, 1)
	require.NotEqual(t, ids.NewCommitId(child.Hash), heads[0])
}

func TestSplitProducesTwoCommitsAndMovesBookmark(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	target, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "target").Write(ctx)
	require.NoError(t, err)
	targetID := ids.NewCommitId(target.Hash)
	repo.AddHead(targetID)
	repo.RemoveHead(ids.RootCommitId)
	repo.SetLocalBookmarkTarget("feature", refs.Normal(targetID))

	result, err := Split(ctx, repo, target, SplitOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.First)
	require.NotNil(t, result.Second)
	require.Equal(t, []plumbing.Hash{result.First.Hash}, result.Second.Parents)

	bm := repo.View().LocalBookmarks["feature"]
	resolved, ok := bm.AsNormal()
	require.True(t, ok)
	require.Equal(t, ids.NewCommitId(result.Second.Hash), resolved)
}

type fakeDiffEditor struct {
	tree plumbing.Hash
	err  error
}

func (f *fakeDiffEditor) Edit(context.Context, *object.Commit, PathMatcher) (plumbing.Hash, error) {
	return f.tree, f.err
}

func TestDiffeditReplacesTreeAndRebasesDescendants(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	target, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "target").Write(ctx)
	require.NoError(t, err)
	targetID := ids.NewCommitId(target.Hash)

	child, err := repo.NewCommit([]ids.CommitId{targetID}, writeTree(t, 2), sig(), sig(), "child").Write(ctx)
	require.NoError(t, err)
	repo.AddHead(ids.NewCommitId(child.Hash))
	repo.RemoveHead(ids.RootCommitId)

	editor := &fakeDiffEditor{tree: writeTree(t, 9)}
	result, err := Diffedit(ctx, repo, target, nil, editor, false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Rebased)

	heads := repo.View().HeadsSorted()
	require.Len(t, heads, 1)
	require.NotEqual(t, ids.NewCommitId(child.Hash), heads[0])
}

func TestDiffeditNoopWhenTreeUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	tree := writeTree(t, 1)
	target, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, tree, sig(), sig(), "target").Write(ctx)
	require.NoError(t, err)
	repo.AddHead(ids.NewCommitId(target.Hash))
	repo.RemoveHead(ids.RootCommitId)

	editor := &fakeDiffEditor{tree: tree}
	result, err := Diffedit(ctx, repo, target, nil, editor, false, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.Rebased)
	require.Equal(t, 0, result.Reparented)
}

func TestDiffeditRestoreDescendantsReparentsInstead(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	target, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "target").Write(ctx)
	require.NoError(t, err)
	targetID := ids.NewCommitId(target.Hash)

	child, err := repo.NewCommit([]ids.CommitId{targetID}, writeTree(t, 2), sig(), sig(), "child").Write(ctx)
	require.NoError(t, err)
	repo.AddHead(ids.NewCommitId(child.Hash))
	repo.RemoveHead(ids.RootCommitId)

	editor := &fakeDiffEditor{tree: writeTree(t, 9)}
	result, err := Diffedit(ctx, repo, target, nil, editor, true, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.Rebased)
	require.Equal(t, 1, result.Reparented)
}

func TestSplitLegacyBookmarkBehaviorMovesViaLedger(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	target, err := repo.NewCommit([]ids.CommitId{ids.RootCommitId}, writeTree(t, 1), sig(), sig(), "target").Write(ctx)
	require.NoError(t, err)
	targetID := ids.NewCommitId(target.Hash)
	repo.AddHead(targetID)
	repo.RemoveHead(ids.RootCommitId)
	repo.SetLocalBookmarkTarget("feature", refs.Normal(targetID))

	result, err := Split(ctx, repo, target, SplitOptions{LegacyBookmarkBehavior: true})
	require.NoError(t, err)

	bm := repo.View().LocalBookmarks["feature"]
	resolved, ok := bm.AsNormal()
	require.True(t, ok)
	require.Equal(t, ids.NewCommitId(result.Second.Hash), resolved)
}
