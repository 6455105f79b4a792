// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// CommitBuilder accumulates the fields of a new or rewritten commit before
// Write() publishes it to the backend and registers it with the index.
type CommitBuilder struct {
	repo         *MutableRepo
	predecessors []ids.CommitId
	rewriteOf    ids.CommitId // set only when built via RewriteCommit
	hasRewriteOf bool
	detached     bool
	change       plumbing.Hash
	tree         plumbing.Hash
	parents      []plumbing.Hash
	author       object.Signature
	committer    object.Signature
	message      string
}

// NewCommit starts building a brand-new commit (no predecessor) with a
// freshly minted change id, the given parents and tree.
func (r *MutableRepo) NewCommit(parents []ids.CommitId, tree plumbing.Hash, author, committer object.Signature, message string) *CommitBuilder {
	hashes := make([]plumbing.Hash, 0, len(parents))
	for _, p := range parents {
		hashes = append(hashes, p.Hash())
	}
	return &CommitBuilder{
		repo:      r,
		change:    newChangeID(),
		tree:      tree,
		parents:   hashes,
		author:    author,
		committer: committer,
		message:   message,
	}
}

// RewriteCommit starts building a replacement for old, carrying over its
// change id, tree, parents and signatures as defaults; callers mutate the
// returned builder (SetTreeID, SetParents, SetMessage, ...) before Write.
func (r *MutableRepo) RewriteCommit(old *object.Commit) *CommitBuilder {
	return &CommitBuilder{
		repo:         r,
		predecessors: []ids.CommitId{ids.NewCommitId(old.Hash)},
		rewriteOf:    ids.NewCommitId(old.Hash),
		hasRewriteOf: true,
		change:       old.Change,
		tree:         old.Tree,
		parents:      append([]plumbing.Hash(nil), old.Parents...),
		author:       old.Author,
		committer:    old.Committer,
		message:      old.Message,
	}
}

// Detach stops Write from auto-registering this builder's old commit as
// rewritten to the new one, for callers (e.g. split) that produce more
// than one replacement for the same old commit and need to record the
// ledger entry themselves once they know which replacement should own it.
func (b *CommitBuilder) Detach() *CommitBuilder {
	b.detached = true
	return b
}

func (b *CommitBuilder) SetTreeID(tree plumbing.Hash) *CommitBuilder {
	b.tree = tree
	return b
}

func (b *CommitBuilder) SetParents(parents []ids.CommitId) *CommitBuilder {
	hashes := make([]plumbing.Hash, 0, len(parents))
	for _, p := range parents {
		hashes = append(hashes, p.Hash())
	}
	b.parents = hashes
	return b
}

func (b *CommitBuilder) SetMessage(message string) *CommitBuilder {
	b.message = message
	return b
}

// Write publishes the commit to the backend, registers it with the index
// and (when this builder was created via RewriteCommit) records its
// predecessor, and returns the written commit.
func (b *CommitBuilder) Write(ctx context.Context) (*object.Commit, error) {
	b.committer.When = time.Now()
	if b.author.When.IsZero() {
		b.author.When = b.committer.When
	}
	nc := object.NewCommit(b.change, b.tree, b.parents, b.author, b.committer, b.message)
	nc.SetBackend(b.repo.backend)
	oid, err := b.repo.backend.WriteEncoded(nc)
	if err != nil {
		return nil, err
	}
	written, err := b.repo.backend.Commit(ctx, oid)
	if err != nil {
		return nil, err
	}
	newParents := make([]ids.CommitId, 0, len(written.Parents))
	for _, p := range written.Parents {
		newParents = append(newParents, ids.NewCommitId(p))
	}
	b.repo.index.AddCommit(ids.NewCommitId(written.Hash), newParents)
	if len(b.predecessors) > 0 {
		b.repo.SetPredecessors(ids.NewCommitId(written.Hash), b.predecessors)
	}
	if b.hasRewriteOf && !b.detached {
		b.repo.SetRewrittenCommit(b.rewriteOf, ids.NewCommitId(written.Hash))
	}
	return written, nil
}

// newChangeID mints a fresh, random change id. Grounded on
// modules/strengthen's random-id helpers rather than hashing content,
// since a change id's whole purpose is to stay stable across rewrites
// that alter content.
func newChangeID() plumbing.Hash {
	var h plumbing.Hash
	_, _ = rand.Read(h[:])
	return h
}
