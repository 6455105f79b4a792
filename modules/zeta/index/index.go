// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package index maintains the in-memory commit-graph reachability index a
// MutableRepo consults to compute heads and ancestry, adapted from the
// timestamp-ordered traversal helpers in modules/zeta/object's commit
// walkers into a graph that can also answer point ancestry queries and
// accept newly written commits without a full reload.
package index

import (
	"context"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// Backend is the narrow capability the index needs to load commit parent
// lists lazily, on demand, for ids it has not indexed yet.
type Backend = object.Backend

// Index is the read-only reachability view a transaction is based on.
type Index interface {
	// Heads filters candidates down to the maximal elements: no candidate
	// in the result is an ancestor of another.
	Heads(candidates []ids.CommitId) []ids.CommitId
	// IsAncestor reports whether ancestor is reachable from descendant by
	// following parent edges (a commit is its own ancestor).
	IsAncestor(ancestor, descendant ids.CommitId) bool
	// Parents returns the direct parents of id, loading from the backend
	// if the index has not seen it yet.
	Parents(ctx context.Context, id ids.CommitId) ([]ids.CommitId, error)
}

// MutableIndex extends Index with the ability to learn about commits
// written during the current transaction before they are durably stored
// anywhere the backend-backed Parents lookup could find them.
type MutableIndex interface {
	Index
	AddCommit(id ids.CommitId, parents []ids.CommitId)
}

// DefaultIndex is the default in-process implementation: a parent-edge
// adjacency map populated lazily from the backend and eagerly by
// AddCommit, with an ancestry-query cache since transform_descendants and
// ref-merge absorption both issue repeated IsAncestor probes over the same
// small working set.
type DefaultIndex struct {
	b       Backend
	mu      sync.RWMutex
	parents map[ids.CommitId][]ids.CommitId
	cache   *ristretto.Cache[string, bool]
}

// New builds a DefaultIndex backed by b. b may be nil for a purely
// in-memory index (e.g. in tests) as long as every id ever queried was
// first registered via AddCommit.
func New(b Backend) (*DefaultIndex, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, bool]{
		NumCounters: 1e5,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DefaultIndex{
		b:       b,
		parents: make(map[ids.CommitId][]ids.CommitId),
		cache:   cache,
	}, nil
}

func (idx *DefaultIndex) AddCommit(id ids.CommitId, parents []ids.CommitId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.parents[id] = parents
}

func (idx *DefaultIndex) Parents(ctx context.Context, id ids.CommitId) ([]ids.CommitId, error) {
	if id.IsRoot() {
		return nil, nil
	}
	idx.mu.RLock()
	p, ok := idx.parents[id]
	idx.mu.RUnlock()
	if ok {
		return p, nil
	}
	c, err := idx.b.Commit(ctx, id.Hash())
	if err != nil {
		return nil, err
	}
	parents := make([]ids.CommitId, 0, len(c.Parents))
	for _, h := range c.Parents {
		parents = append(parents, ids.NewCommitId(h))
	}
	idx.mu.Lock()
	idx.parents[id] = parents
	idx.mu.Unlock()
	return parents, nil
}

// IsAncestor performs a bounded DFS over parent edges starting at
// descendant, looking for ancestor. Results are cached since the same
// pair (or overlapping pairs sharing structure) recur heavily during ref
// conflict absorption.
func (idx *DefaultIndex) IsAncestor(ancestor, descendant ids.CommitId) bool {
	if ancestor == descendant {
		return true
	}
	key := ancestor.String() + ".." + descendant.String()
	if v, ok := idx.cache.Get(key); ok {
		return v
	}
	result := idx.walkAncestry(ancestor, descendant)
	idx.cache.Set(key, result, 1)
	return result
}

func (idx *DefaultIndex) walkAncestry(ancestor, descendant ids.CommitId) bool {
	ctx := context.Background()
	visited := map[ids.CommitId]bool{descendant: true}
	stack := []ids.CommitId{descendant}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parents, err := idx.Parents(ctx, cur)
		if err != nil {
			return false
		}
		for _, p := range parents {
			if p == ancestor {
				return true
			}
			if !visited[p] {
				visited[p] = true
				stack = append(stack, p)
			}
		}
	}
	return false
}

// Heads drops every candidate that is a strict ancestor of another
// candidate, deduplicating as it goes. O(n^2) ancestry probes, acceptable
// for the small head sets this is ever called with (a handful of branch
// tips, not the whole graph).
func (idx *DefaultIndex) Heads(candidates []ids.CommitId) []ids.CommitId {
	seen := make(map[ids.CommitId]bool, len(candidates))
	uniq := make([]ids.CommitId, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	out := make([]ids.CommitId, 0, len(uniq))
	for i, a := range uniq {
		isAncestorOfOther := false
		for j, b := range uniq {
			if i == j {
				continue
			}
			if a != b && idx.IsAncestor(a, b) {
				isAncestorOfOther = true
				break
			}
		}
		if !isAncestorOfOther {
			out = append(out, a)
		}
	}
	return out
}
