package mutablerepo

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

var errCommitNotFound = errors.New("commit not found")

// memBackend is a minimal in-memory commit store sufficient to exercise
// MutableRepo without any on-disk I/O.
type memBackend struct {
	commits map[plumbing.Hash]*object.Commit
}

func newMemBackend() *memBackend {
	return &memBackend{commits: make(map[plumbing.Hash]*object.Commit)}
}

func (b *memBackend) Commit(_ context.Context, id plumbing.Hash) (*object.Commit, error) {
	c, ok := b.commits[id]
	if !ok {
		return nil, errCommitNotFound
	}
	return c, nil
}

func (b *memBackend) WriteEncoded(e object.Encoder) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		return plumbing.Hash{}, err
	}
	oid := object.Hash(e)
	c, ok := e.(*object.Commit)
	if ok {
		cp := *c
		cp.Hash = oid
		b.commits[oid] = &cp
	}
	return oid, nil
}

func (b *memBackend) put(c *object.Commit) plumbing.Hash {
	oid, _ := b.WriteEncoded(c)
	return oid
}

func setup(t *testing.T) (*memBackend, *index.DefaultIndex, *MutableRepo) {
	t.Helper()
	backend := newMemBackend()
	idx, err := index.New(backend)
	require.NoError(t, err)
	v := view.New()
	repo := New(backend, idx, v)
	return backend, idx, repo
}

func sig() object.Signature {
	return object.Signature{Name: "a", Email: "a@example.com"}
}

func mkCommit(change plumbing.Hash, parents []plumbing.Hash, msg string) *object.Commit {
	return object.NewCommit(change, plumbing.Hash{}, parents, sig(), sig(), msg)
}

func TestLedgerNeverMapsRoot(t *testing.T) {
	_, _, repo := setup(t)
	require.Panics(t, func() {
		repo.SetRewrittenCommit(ids.RootCommitId, ids.RootCommitId)
	})
}

func TestNewParentsSimpleRewrite(t *testing.T) {
	backend, idx, repo := setup(t)

	a := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a"))
	idx.AddCommit(ids.NewCommitId(a), []ids.CommitId{ids.RootCommitId})

	newA := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a2"))
	idx.AddCommit(ids.NewCommitId(newA), []ids.CommitId{ids.RootCommitId})

	repo.SetRewrittenCommit(ids.NewCommitId(a), ids.NewCommitId(newA))

	got := repo.NewParents([]ids.CommitId{ids.NewCommitId(a)})
	require.Equal(t, []ids.CommitId{ids.NewCommitId(newA)}, got)
}

func TestNewParentsAbandonedUsesReplacementParents(t *testing.T) {
	backend, idx, repo := setup(t)

	root := ids.RootCommitId
	a := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a"))
	idx.AddCommit(ids.NewCommitId(a), []ids.CommitId{root})

	repo.RecordAbandonedCommitWithParents(ids.NewCommitId(a), []ids.CommitId{root})

	got := repo.NewParents([]ids.CommitId{ids.NewCommitId(a)})
	require.Equal(t, []ids.CommitId{root}, got)
}

func TestNewParentsDivergentIsOpaque(t *testing.T) {
	backend, idx, repo := setup(t)

	a := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a"))
	idx.AddCommit(ids.NewCommitId(a), []ids.CommitId{ids.RootCommitId})
	n1 := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "n1"))
	n2 := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "n2"))

	repo.SetDivergentRewrite(ids.NewCommitId(a), []ids.CommitId{ids.NewCommitId(n1), ids.NewCommitId(n2)})

	got := repo.NewParents([]ids.CommitId{ids.NewCommitId(a)})
	require.Equal(t, []ids.CommitId{ids.NewCommitId(a)}, got)
}

func TestResolveRewriteMappingWithChain(t *testing.T) {
	_, idx, repo := setup(t)
	root := ids.RootCommitId
	a, b, c := cid(1), cid(2), cid(3)
	idx.AddCommit(a, []ids.CommitId{root})
	idx.AddCommit(b, []ids.CommitId{root})
	idx.AddCommit(c, []ids.CommitId{root})

	repo.SetRewrittenCommit(a, b)
	repo.SetRewrittenCommit(b, c)

	m := repo.ResolveRewriteMappingWith(func(ids.CommitId) bool { return true })
	require.Equal(t, []ids.CommitId{c}, m[a])
	require.Equal(t, []ids.CommitId{c}, m[b])
}

func cid(b byte) ids.CommitId {
	var h plumbing.Hash
	h[0] = b
	return ids.NewCommitId(h)
}

func TestRebaseDescendantsMovesChild(t *testing.T) {
	backend, idx, repo := setup(t)
	ctx := context.Background()

	aHash := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a"))
	a := ids.NewCommitId(aHash)
	idx.AddCommit(a, []ids.CommitId{ids.RootCommitId})

	childHash := backend.put(mkCommit(plumbing.Hash{2}, []plumbing.Hash{aHash}, "child"))
	child := ids.NewCommitId(childHash)
	idx.AddCommit(child, []ids.CommitId{a})

	repo.view.HeadIDs = map[ids.CommitId]bool{child: true}

	newAHash := backend.put(mkCommit(plumbing.Hash{1}, []plumbing.Hash{plumbing.ZeroHash}, "a-amended"))
	newA := ids.NewCommitId(newAHash)
	idx.AddCommit(newA, []ids.CommitId{ids.RootCommitId})

	repo.SetRewrittenCommit(a, newA)

	count, err := repo.RebaseDescendants(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Empty(t, repo.parentMapping)
}
