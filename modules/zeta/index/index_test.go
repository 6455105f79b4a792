package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
)

func cid(b byte) ids.CommitId {
	var h plumbing.Hash
	h[0] = b
	return ids.NewCommitId(h)
}

func TestIsAncestorDirect(t *testing.T) {
	idx, err := New(nil)
	require.NoError(t, err)

	root, a, b, c := ids.RootCommitId, cid(1), cid(2), cid(3)
	idx.AddCommit(a, []ids.CommitId{root})
	idx.AddCommit(b, []ids.CommitId{a})
	idx.AddCommit(c, []ids.CommitId{b})

	require.True(t, idx.IsAncestor(root, c))
	require.True(t, idx.IsAncestor(a, c))
	require.True(t, idx.IsAncestor(c, c))
	require.False(t, idx.IsAncestor(c, a))
}

func TestHeadsDropsNonMaximal(t *testing.T) {
	idx, err := New(nil)
	require.NoError(t, err)

	root, a, b := ids.RootCommitId, cid(1), cid(2)
	idx.AddCommit(a, []ids.CommitId{root})
	idx.AddCommit(b, []ids.CommitId{a})

	heads := idx.Heads([]ids.CommitId{root, a, b})
	require.Equal(t, []ids.CommitId{b}, heads)
}

func TestHeadsKeepsDivergentBranches(t *testing.T) {
	idx, err := New(nil)
	require.NoError(t, err)

	root, a, b := ids.RootCommitId, cid(1), cid(2)
	idx.AddCommit(a, []ids.CommitId{root})
	idx.AddCommit(b, []ids.CommitId{root})

	heads := idx.Heads([]ids.CommitId{a, b})
	require.ElementsMatch(t, []ids.CommitId{a, b}, heads)
}
