// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package transaction implements transaction finalization (§4.11): a
// Transaction wraps a MutableRepo for the lifetime of one command, then on
// Finish rebases descendants of whatever the command touched, persists the
// mutated view, appends a new Operation to the op log, and atomically
// swaps the op-heads store to point at it.
package transaction

import (
	"context"
	"time"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/trace"
	zeta "github.com/antgroup/hugevcs/modules/zeta"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/opstore"
	"github.com/antgroup/hugevcs/modules/zeta/reflog"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

// Stores bundles the four store abstractions a Transaction finalizes
// against (§6 "External interfaces"), so callers wire concrete backends
// once and pass them through.
type Stores struct {
	Operations opstore.Store
	OpHeads    opstore.OpHeadsStore
	Views      ViewStore
	Reflog     *reflog.DB // optional; nil disables op-heads reflog entries
}

// FinishOptions controls what Finish() does before persisting.
type FinishOptions struct {
	// SkipAutoRebase disables the default rebase_descendants() call; the
	// caller has already rebased (or explicitly wants to leave rewritten
	// commits' descendants where they are, e.g. a command driver that
	// calls rebase_or_reparent_descendants itself with should_restore).
	SkipAutoRebase bool
	TreeMerger     mutablerepo.TreeMerger
	Tags           map[string]string
}

// Transaction is the in-flight mutation unit. Not safe for concurrent use
// (mirrors MutableRepo's single-writer model, §5).
type Transaction struct {
	repo       *mutablerepo.MutableRepo
	stores     Stores
	startHeads []ids.OperationId
	start      time.Time
	committer  object.Signature
}

// Start opens a new transaction: reads the current op-heads, loads (and, if
// more than one is found, merges via MergeView — a synthetic reconciling
// operation per §5) the view each points at, and returns a MutableRepo
// seeded from the reconciled view.
func Start(ctx context.Context, backend mutablerepo.Backend, idx index.MutableIndex, stores Stores, committer object.Signature) (*Transaction, error) {
	heads, err := stores.OpHeads.GetOpHeads()
	if err != nil {
		return nil, zeta.NewOpHeadResolutionError(err)
	}

	base, err := loadOpView(stores, heads[0])
	if err != nil {
		return nil, err
	}
	repo := mutablerepo.New(backend, idx, base)
	for _, h := range heads[1:] {
		other, err := loadOpView(stores, h)
		if err != nil {
			return nil, err
		}
		if err := repo.MergeView(ctx, base, other); err != nil {
			return nil, err
		}
	}

	return &Transaction{
		repo:       repo,
		stores:     stores,
		startHeads: heads,
		start:      time.Now(),
		committer:  committer,
	}, nil
}

func loadOpView(stores Stores, opID ids.OperationId) (*view.View, error) {
	if opID.IsRoot() {
		return view.New(), nil
	}
	op, err := stores.Operations.ReadOperation(opID)
	if err != nil {
		return nil, zeta.NewOpStoreError("read", err)
	}
	v, err := stores.Views.LoadView(op.ViewID)
	if err != nil {
		return nil, zeta.NewOpStoreError("load-view", err)
	}
	return v, nil
}

// Repo exposes the underlying MutableRepo for commands to mutate.
func (tx *Transaction) Repo() *mutablerepo.MutableRepo { return tx.repo }

// Finish rebases (unless SkipAutoRebase), persists the resulting view,
// appends a new Operation, and swaps the op-heads store. Returns the
// written Operation.
func (tx *Transaction) Finish(ctx context.Context, description string, opts FinishOptions) (op *opstore.Operation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zeta.Recover(r)
		}
	}()

	if !opts.SkipAutoRebase {
		n, rebaseErr := tx.repo.RebaseDescendants(ctx, opts.TreeMerger)
		if rebaseErr != nil {
			return nil, rebaseErr
		}
		trace.DbgPrint("transaction: rebased %d descendant(s)", n)
	}

	v := tx.repo.View()
	viewID, err := tx.stores.Views.SaveView(v)
	if err != nil {
		return nil, zeta.NewOpStoreError("save-view", err)
	}

	end := time.Now()
	opID := contentOperationID(tx.startHeads, tx.start, end, description, viewID)
	op = &opstore.Operation{
		ID:          opID,
		Parents:     tx.startHeads,
		Start:       tx.start,
		End:         end,
		Description: description,
		ViewID:      viewID,
		Tags:        opts.Tags,
	}
	if err := tx.stores.Operations.WriteOperation(op); err != nil {
		return nil, zeta.NewOpStoreError("write", err)
	}
	if err := tx.stores.OpHeads.UpdateOpHeads(tx.startHeads, opID); err != nil {
		return nil, zeta.NewOpStoreError("update-heads", err)
	}
	tx.appendReflog(opID, description)
	return op, nil
}

func (tx *Transaction) appendReflog(opID ids.OperationId, description string) {
	if tx.stores.Reflog == nil {
		return
	}
	name := plumbing.ReferenceName("op-heads")
	rl, err := tx.stores.Reflog.Read(name)
	if err != nil {
		trace.DbgPrint("transaction: reflog read failed, skipping: %v", err)
		return
	}
	rl.Push(opID.Hash(), &tx.committer, description)
	if err := tx.stores.Reflog.Write(rl); err != nil {
		trace.DbgPrint("transaction: reflog write failed: %v", err)
	}
}

// contentOperationID hashes the operation's own fields so identical
// concurrent transactions (same parents, same start and end times, same
// description, same resulting view) collapse to the same id rather than racing to create two
// indistinguishable heads.
func contentOperationID(parents []ids.OperationId, start, end time.Time, description, viewID string) ids.OperationId {
	h := plumbing.NewHasher()
	for _, p := range parents {
		ph := p.Hash()
		_, _ = h.Write(ph[:])
	}
	_, _ = h.Write([]byte(start.UTC().Format(time.RFC3339Nano)))
	_, _ = h.Write([]byte(end.UTC().Format(time.RFC3339Nano)))
	_, _ = h.Write([]byte(description))
	_, _ = h.Write([]byte(viewID))
	return ids.NewOperationId(h.Sum())
}
