package object

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBackend is a test implementation of Backend interface for testing commit walkers
type MockBackend struct {
	commits map[plumbing.Hash]*Commit
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		commits: make(map[plumbing.Hash]*Commit),
	}
}

func (m *MockBackend) AddCommit(commit *Commit) {
	commit.b = m // Set the backend on the commit
	m.commits[commit.Hash] = commit
}

func (m *MockBackend) Commit(ctx context.Context, hash plumbing.Hash) (*Commit, error) {
	c, ok := m.commits[hash]
	if !ok {
		return nil, plumbing.NoSuchObject(hash)
	}
	return c, nil
}

// NewTestCommit creates a test commit with the given parameters
func NewTestCommit(hash string, message string, parents ...*Commit) *Commit {
	c := &Commit{
		Hash:      plumbing.NewHash(hash),
		Parents:   make([]plumbing.Hash, len(parents)),
		Message:   message,
		Author:    Signature{Name: "Test Author", Email: "test@example.com", When: time.Now()},
		Committer: Signature{Name: "Test Author", Email: "test@example.com", When: time.Now()},
	}
	for i, p := range parents {
		c.Parents[i] = p.Hash
	}
	return c
}

// TestCommitPreorderIter tests basic preorder traversal of commits
func TestCommitPreorderIter(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a simple commit graph: C3 <- C2 <- C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)

	iter := NewCommitPreorderIter(c3, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, len(commits))
	assert.Equal(t, "C3", commits[0].Message)
	assert.Equal(t, "C2", commits[1].Message)
	assert.Equal(t, "C1", commits[2].Message)
}

// TestCommitPreorderIterWithMerge tests preorder traversal with merge commits
func TestCommitPreorderIterWithMerge(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a merge commit graph:
	//     M (merge)
	//    / \
	//   C2  C3
	//    \ /
	//     C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c1)
	m := NewTestCommit("4444444444444444444444444444444444444444", "M", c2, c3)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)
	backend.AddCommit(m)

	iter := NewCommitPreorderIter(m, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 4, len(commits))
	assert.Contains(t, commits, m)
	assert.Contains(t, commits, c2)
	assert.Contains(t, commits, c3)
	assert.Contains(t, commits, c1)
}

// TestCommitPreorderIterDeduplication tests that commits are not visited twice
func TestCommitPreorderIterDeduplication(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a diamond graph:
	//     M
	//    / \
	//   C2  C3
	//    \ /
	//     C1
	// C1 should be visited only once
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c1)
	m := NewTestCommit("4444444444444444444444444444444444444444", "M", c2, c3)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)
	backend.AddCommit(m)

	iter := NewCommitPreorderIter(m, nil, nil)
	defer iter.Close()

	var c1Count int
	err := iter.ForEach(ctx, func(commit *Commit) error {
		if commit.Hash == c1.Hash {
			c1Count++
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, c1Count, "C1 should be visited exactly once")
}

// TestCommitBFSIter tests breadth-first search traversal
func TestCommitBFSIter(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a linear graph: C4 <- C3 <- C2 <- C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)
	c4 := NewTestCommit("4444444444444444444444444444444444444444", "C4", c3)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)
	backend.AddCommit(c4)

	iter := NewCommitIterBFS(c4, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 4, len(commits))
	// BFS visits level by level
	assert.Equal(t, "C4", commits[0].Message)
	assert.Equal(t, "C3", commits[1].Message)
	assert.Equal(t, "C2", commits[2].Message)
	assert.Equal(t, "C1", commits[3].Message)
}

// TestCommitBFSIterWithMerge tests BFS traversal with merge commits
func TestCommitBFSIterWithMerge(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a merge commit graph:
	//     M
	//    / \
	//   C2  C3
	//    \ /
	//     C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c1)
	m := NewTestCommit("4444444444444444444444444444444444444444", "M", c2, c3)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)
	backend.AddCommit(m)

	iter := NewCommitIterBFS(m, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 4, len(commits))
	assert.Contains(t, commits, m)
	assert.Contains(t, commits, c2)
	assert.Contains(t, commits, c3)
	assert.Contains(t, commits, c1)
}

// TestCommitTopoOrderIter tests topological order traversal
func TestCommitTopoOrderIter(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a simple commit graph: C3 <- C2 <- C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)

	iter := NewCommitIterTopoOrder(c3, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, len(commits))
	// Topological order should visit children before parents
	assert.Equal(t, "C3", commits[0].Message)
	assert.Equal(t, "C2", commits[1].Message)
	assert.Equal(t, "C1", commits[2].Message)
}

// TestCommitWalkerShallowClone tests that commit walkers handle missing commits gracefully
// This is critical for the default shallow clone behavior
func TestCommitWalkerShallowClone(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create commits
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)

	// Simulate shallow clone: only C3 and C2 are available, C1 is missing
	backend.AddCommit(c2)
	backend.AddCommit(c3)

	iter := NewCommitPreorderIter(c3, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err, "Should not error on missing commits in shallow clone")
	// Should traverse C3 and C2, skipping missing C1 gracefully
	assert.Equal(t, 2, len(commits))
	assert.Contains(t, commits, c3)
	assert.Contains(t, commits, c2)
}

// TestCommitWalkerShallowCloneWithMerge tests shallow clone with merge commits
func TestCommitWalkerShallowCloneWithMerge(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	// Create a merge commit graph:
	//     M
	//    / \
	//   C2  C3
	//    \ /
	//     C1
	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c1)
	m := NewTestCommit("4444444444444444444444444444444444444444", "M", c2, c3)

	// Simulate shallow clone: only M and C2 are available, C3 and C1 are missing
	backend.AddCommit(m)
	backend.AddCommit(c2)

	iter := NewCommitIterBFS(m, nil, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err, "Should not error on missing commits in shallow clone")
	// Should traverse M and C2, skipping missing C3 and C1 gracefully
	assert.Equal(t, 2, len(commits))
	assert.Contains(t, commits, m)
	assert.Contains(t, commits, c2)
}

// TestCommitIterForEachStop tests that ErrStop stops traversal
func TestCommitIterForEachStop(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)

	iter := NewCommitPreorderIter(c3, nil, nil)
	defer iter.Close()

	count := 0
	err := iter.ForEach(ctx, func(commit *Commit) error {
		count++
		// Stop after 2 commits
		if count == 2 {
			return plumbing.ErrStop
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, count, "Should stop after ErrStop")
}

// TestCommitIterNextDirectly tests calling Next() directly
func TestCommitIterNextDirectly(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)

	backend.AddCommit(c1)
	backend.AddCommit(c2)

	iter := NewCommitPreorderIter(c2, nil, nil)
	defer iter.Close()

	// First commit
	c, err := iter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C2", c.Message)

	// Second commit
	c, err = iter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C1", c.Message)

	// EOF
	c, err = iter.Next(ctx)
	require.Equal(t, io.EOF, err)
	assert.Nil(t, c)
}

// TestCommitIterClose tests that Close() properly cleans up resources
func TestCommitIterClose(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")

	backend.AddCommit(c1)

	iter := NewCommitPreorderIter(c1, nil, nil)

	// Get a commit
	c, err := iter.Next(ctx)
	require.NoError(t, err)
	assert.NotNil(t, c)

	// Close the iterator
	iter.Close()

	// Try to get another commit after close
	c, err = iter.Next(ctx)
	require.Error(t, err)
	assert.Nil(t, c)
}

// TestCommitWalkerErrorPropagation tests that errors are properly propagated
func TestCommitWalkerErrorPropagation(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")

	backend.AddCommit(c1)

	iter := NewCommitPreorderIter(c1, nil, nil)
	defer iter.Close()

	// Return an error from the callback
	expectedErr := io.EOF
	err := iter.ForEach(ctx, func(commit *Commit) error {
		return expectedErr
	})

	require.Equal(t, expectedErr, err)
}

// TestLookupIter tests the simple lookup-based commit iterator.
func TestLookupIter(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)

	backend.AddCommit(c1)
	backend.AddCommit(c2)

	iter := NewCommitIter(backend, []plumbing.Hash{c1.Hash, c2.Hash})
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, len(commits))
	assert.Equal(t, "C1", commits[0].Message)
	assert.Equal(t, "C2", commits[1].Message)
}

// TestPostorderIter tests post-order (chronological) commit traversal.
func TestPostorderIter(t *testing.T) {
	ctx := t.Context()
	backend := NewMockBackend()

	c1 := NewTestCommit("1111111111111111111111111111111111111111", "C1")
	c2 := NewTestCommit("2222222222222222222222222222222222222222", "C2", c1)
	c3 := NewTestCommit("3333333333333333333333333333333333333333", "C3", c2)

	backend.AddCommit(c1)
	backend.AddCommit(c2)
	backend.AddCommit(c3)

	iter := NewCommitPostorderIter(c3, nil)
	defer iter.Close()

	var commits []*Commit
	err := iter.ForEach(ctx, func(commit *Commit) error {
		commits = append(commits, commit)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, len(commits))
	assert.Equal(t, "C1", commits[0].Message)
	assert.Equal(t, "C2", commits[1].Message)
	assert.Equal(t, "C3", commits[2].Message)
}
