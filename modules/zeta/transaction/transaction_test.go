package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/backend"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/opstore"
)

func newStores(t *testing.T) (*backend.Database, Stores) {
	t.Helper()
	root := t.TempDir()
	db, err := backend.NewDatabase(root)
	require.NoError(t, err)

	ops, err := opstore.NewFileStore(root + "/operations")
	require.NoError(t, err)
	views, err := NewFileViewStore(root + "/views")
	require.NoError(t, err)

	return db, Stores{
		Operations: ops,
		OpHeads:    opstore.NewFileOpHeadsStore(root),
		Views:      views,
	}
}

func sig() object.Signature {
	return object.Signature{Name: "a", Email: "a@example.com"}
}

func TestStartFromFreshRepoSeesRootOnly(t *testing.T) {
	db, stores := newStores(t)
	idx, err := index.New(db)
	require.NoError(t, err)

	tx, err := Start(context.Background(), db, idx, stores, sig())
	require.NoError(t, err)
	require.Equal(t, []ids.CommitId{ids.RootCommitId}, tx.Repo().View().HeadsSorted())
}

func TestFinishWritesOperationAndAdvancesHeads(t *testing.T) {
	db, stores := newStores(t)
	idx, err := index.New(db)
	require.NoError(t, err)
	ctx := context.Background()

	tx, err := Start(ctx, db, idx, stores, sig())
	require.NoError(t, err)

	c, err := tx.Repo().NewCommit([]ids.CommitId{ids.RootCommitId}, plumbing.Hash{}, sig(), sig(), "first").Write(ctx)
	require.NoError(t, err)
	tx.Repo().AddHead(ids.NewCommitId(c.Hash))
	tx.Repo().RemoveHead(ids.RootCommitId)

	op, err := tx.Finish(ctx, "add first commit", FinishOptions{})
	require.NoError(t, err)
	require.Equal(t, []ids.OperationId{ids.RootOperationId}, op.Parents)

	heads, err := stores.OpHeads.GetOpHeads()
	require.NoError(t, err)
	require.Equal(t, []ids.OperationId{op.ID}, heads)

	stored, err := stores.Operations.ReadOperation(op.ID)
	require.NoError(t, err)
	require.Equal(t, "add first commit", stored.Description)

	v, err := stores.Views.LoadView(stored.ViewID)
	require.NoError(t, err)
	require.Equal(t, []ids.CommitId{ids.NewCommitId(c.Hash)}, v.HeadsSorted())
}

func TestSecondTransactionBuildsOnFirst(t *testing.T) {
	db, stores := newStores(t)
	idx, err := index.New(db)
	require.NoError(t, err)
	ctx := context.Background()

	tx1, err := Start(ctx, db, idx, stores, sig())
	require.NoError(t, err)
	c1, err := tx1.Repo().NewCommit([]ids.CommitId{ids.RootCommitId}, plumbing.Hash{}, sig(), sig(), "first").Write(ctx)
	require.NoError(t, err)
	tx1.Repo().AddHead(ids.NewCommitId(c1.Hash))
	tx1.Repo().RemoveHead(ids.RootCommitId)
	_, err = tx1.Finish(ctx, "first", FinishOptions{})
	require.NoError(t, err)

	tx2, err := Start(ctx, db, idx, stores, sig())
	require.NoError(t, err)
	require.Equal(t, []ids.CommitId{ids.NewCommitId(c1.Hash)}, tx2.Repo().View().HeadsSorted())
}
