package backend

import (
	"bytes"
	"testing"
	"time"

	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/stretchr/testify/require"
)

func newTestCommit(msg string, parents ...plumbing.Hash) *object.Commit {
	return object.NewCommit(
		plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111"),
		plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222"),
		parents,
		object.Signature{Name: "a", Email: "a@example.com", When: time.Unix(1000, 0)},
		object.Signature{Name: "a", Email: "a@example.com", When: time.Unix(1000, 0)},
		msg,
	)
}

func TestWriteAndReadCommit(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDatabase(dir)
	require.NoError(t, err)
	defer db.Close() // nolint

	c := newTestCommit("first change")
	oid, err := db.WriteEncoded(c)
	require.NoError(t, err)
	require.False(t, oid.IsZero())

	got, err := db.Commit(t.Context(), oid)
	require.NoError(t, err)
	require.Equal(t, "first change", got.Message)
	require.Equal(t, c.Tree, got.Tree)
}

func TestCommitRoundTripEncoding(t *testing.T) {
	c := newTestCommit("round trip")
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))

	oid := object.Hash(c)
	require.False(t, oid.IsZero())
}

func TestExistsAndSearch(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDatabase(dir)
	require.NoError(t, err)
	defer db.Close() // nolint

	c := newTestCommit("searchable")
	oid, err := db.WriteEncoded(c)
	require.NoError(t, err)

	require.NoError(t, db.Exists(oid))
	found, err := db.Search(oid.Prefix()[:8])
	require.NoError(t, err)
	require.Equal(t, oid, found)
}
