package refs

import (
	"testing"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/stretchr/testify/require"
)

func hashN(n byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = n
	return h
}

type fakeIndex struct {
	ancestors map[ids.CommitId]map[ids.CommitId]bool
}

func (f *fakeIndex) IsAncestor(a, b ids.CommitId) bool {
	m, ok := f.ancestors[a]
	return ok && m[b]
}

func TestRefTargetTrivialMerges(t *testing.T) {
	c1 := ids.NewCommitId(hashN(1))
	absent := Absent()
	n1 := Normal(c1)

	require.True(t, MergeRefTargets(nil, n1, n1, n1).Equal(n1))
	require.True(t, MergeRefTargets(nil, absent, absent, n1).Equal(n1))
	require.True(t, MergeRefTargets(nil, n1, absent, absent).Equal(n1))
}

func TestRefTargetConflict(t *testing.T) {
	c1 := ids.NewCommitId(hashN(1))
	c2 := ids.NewCommitId(hashN(2))
	base := Absent()
	self := Normal(c1)
	other := Normal(c2)

	merged := MergeRefTargets(nil, self, base, other)
	require.False(t, merged.IsResolved())
	require.ElementsMatch(t, []ids.CommitId{c1, c2}, merged.AddedIds())
}

func TestRefTargetAncestryAbsorption(t *testing.T) {
	c1 := ids.NewCommitId(hashN(1))
	c2 := ids.NewCommitId(hashN(2))
	idx := &fakeIndex{ancestors: map[ids.CommitId]map[ids.CommitId]bool{
		c1: {c2: true},
	}}

	base := Absent()
	self := Normal(c1)
	other := Normal(c2)

	merged := MergeRefTargets(idx, self, base, other)
	resolved, ok := merged.AsNormal()
	require.True(t, ok)
	require.Equal(t, c2, resolved)
}
