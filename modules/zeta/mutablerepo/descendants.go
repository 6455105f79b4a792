// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/antgroup/hugevcs/modules/ids"
)

// childEdges is a lazily built reverse-adjacency map (parent -> children)
// covering the transitive closure below roots, built by walking forward
// from roots via the backend/index's parent lookups run in the opposite
// direction is not available, so instead we discover children by walking
// every known head backward and recording edges as we go, stopping once
// every root has been reached by at least one path. Independent parent
// lookups for sibling branches are fanned out concurrently per §5.
func (r *MutableRepo) childEdges(ctx context.Context, heads []ids.CommitId) (map[ids.CommitId][]ids.CommitId, error) {
	children := make(map[ids.CommitId][]ids.CommitId)
	visited := make(map[ids.CommitId]bool)
	var mu sync.Mutex

	var walk func(context.Context, ids.CommitId) error
	walk = func(ctx context.Context, id ids.CommitId) error {
		mu.Lock()
		if visited[id] {
			mu.Unlock()
			return nil
		}
		visited[id] = true
		mu.Unlock()

		parents, err := r.index.Parents(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, p := range parents {
			children[p] = append(children[p], id)
		}
		mu.Unlock()

		if id.IsRoot() {
			return nil
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, p := range parents {
			p := p
			g.Go(func() error { return walk(gctx, p) })
		}
		return g.Wait()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, h := range heads {
		h := h
		g.Go(func() error { return walk(gctx, h) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return children, nil
}

// FindDescendantsForRebase computes descendants(roots) minus the ledger's
// keys (commits already recorded as rewritten get their replacements
// handled separately, not revisited here), per §4.5. heads bounds the walk
// to the current view's heads, since descendants can never extend past
// them.
func (r *MutableRepo) FindDescendantsForRebase(ctx context.Context, roots []ids.CommitId, heads []ids.CommitId) ([]ids.CommitId, error) {
	children, err := r.childEdges(ctx, heads)
	if err != nil {
		return nil, err
	}

	visited := make(map[ids.CommitId]bool)
	var out []ids.CommitId
	var walk func(ids.CommitId)
	walk = func(id ids.CommitId) {
		if visited[id] {
			return
		}
		visited[id] = true
		if _, isRewritten := r.parentMapping[id]; !isRewritten {
			out = append(out, id)
		}
		for _, c := range children[id] {
			walk(c)
		}
	}
	for _, root := range roots {
		for _, c := range children[root] {
			walk(c)
		}
	}
	return out, nil
}

// OrderCommitsForRebase returns toVisit in reverse topological order
// (parents before children, with overrides from newParents consulted in
// place of the stored parent list, falling further to the ledger's
// replacement when a stored parent is itself a rewritten commit still in
// toVisit), per §4.5. The returned slice is a stack: popping from the end
// yields the next commit whose parents are already processed.
func (r *MutableRepo) OrderCommitsForRebase(ctx context.Context, toVisit []ids.CommitId, newParents map[ids.CommitId][]ids.CommitId) ([]ids.CommitId, error) {
	inSet := make(map[ids.CommitId]bool, len(toVisit))
	for _, id := range toVisit {
		inSet[id] = true
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[ids.CommitId]int, len(toVisit))
	var order []ids.CommitId

	var parentsOf func(ids.CommitId) ([]ids.CommitId, error)
	parentsOf = func(id ids.CommitId) ([]ids.CommitId, error) {
		if mapped, ok := newParents[id]; ok {
			return mapped, nil
		}
		stored, err := r.index.Parents(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make([]ids.CommitId, 0, len(stored))
		for _, p := range stored {
			if rw, ok := r.parentMapping[p]; ok {
				for _, rep := range rw.NewParentIDs() {
					if inSet[rep] {
						out = append(out, rep)
						continue
					}
				}
				if inSet[p] {
					out = append(out, p)
				}
				continue
			}
			out = append(out, p)
		}
		return out, nil
	}

	var visit func(ids.CommitId) error
	visit = func(id ids.CommitId) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			panic(&ledgerCycleError{CommitID: id})
		}
		state[id] = visiting
		parents, err := parentsOf(id)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if inSet[p] {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		state[id] = visited
		order = append(order, id)
		return nil
	}

	for _, id := range toVisit {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	// order is currently parents-first; reverse so the result is a stack
	// where popping from the end (order[len-1]) yields the next commit
	// whose parents have already been processed.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
