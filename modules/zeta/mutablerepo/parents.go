// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import "github.com/antgroup/hugevcs/modules/ids"

// ledgerCycleError is the panic value raised when the rewrite ledger
// cannot be topologically sorted: an invariant violation that can only
// originate from a bug in the bookkeeping that populates it, not from user
// input. Recovered only at the transaction boundary via zeta.Recover.
type ledgerCycleError struct{ CommitID ids.CommitId }

func (e *ledgerCycleError) Error() string {
	return "cycle detected in rewrite ledger at " + e.CommitID.String()
}

// NewParents walks the rewrite ledger transitively to compute the
// replacement parent vector for an old parent vector P, per §4.4: for each
// id (processed in reverse so the final result preserves P's original
// order), if the ledger maps it and the mapping is not Divergent, its
// NewParentIDs are pushed to be visited in turn; otherwise the id itself is
// emitted. Divergent entries are opaque: descendants keep pointing at the
// original id.
//
// The result preserves first-seen order and suppresses duplicates. Panics
// (stable-unique empty-result assertion) if P is non-empty but every id
// resolves away to nothing, which cannot happen without a ledger bug since
// Abandoned always carries at least the abandoned commit's own parents.
func (r *MutableRepo) NewParents(oldParents []ids.CommitId) []ids.CommitId {
	seen := make(map[ids.CommitId]bool, len(oldParents))
	var out []ids.CommitId

	var emit func(id ids.CommitId)
	emit = func(id ids.CommitId) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	var visit func(id ids.CommitId)
	visit = func(id ids.CommitId) {
		rw, ok := r.parentMapping[id]
		if !ok {
			emit(id)
			return
		}
		replacement := rw.NewParentIDs()
		if replacement == nil {
			// Divergent: treated as opaque, keep pointing at the original.
			emit(id)
			return
		}
		for _, next := range replacement {
			visit(next)
		}
	}

	for _, id := range oldParents {
		visit(id)
	}
	if len(oldParents) > 0 && len(out) == 0 {
		panic(&ledgerCycleError{CommitID: oldParents[0]})
	}
	return out
}

// ResolveRewriteMappingWith topologically sorts the ledger's keys (parents
// before children) and, for each entry whose old id satisfies predicate,
// replaces every new-parent-id reference with its already-resolved
// replacement, producing a fully collapsed old -> []new mapping ready for
// rewriting references. Unlike NewParents, a Divergent entry maps to its
// new ids here, so references at the old id follow every replacement.
// Panics with ledgerCycleError if the ledger forms a cycle.
func (r *MutableRepo) ResolveRewriteMappingWith(predicate func(ids.CommitId) bool) map[ids.CommitId][]ids.CommitId {
	order := r.topoSortLedgerKeys()
	resolved := make(map[ids.CommitId][]ids.CommitId, len(order))

	resolveOne := func(id ids.CommitId) []ids.CommitId {
		if rep, ok := resolved[id]; ok {
			return rep
		}
		return []ids.CommitId{id}
	}

	for _, old := range order {
		if !predicate(old) {
			continue
		}
		rw := r.parentMapping[old]
		raw := rw.NewParentIDs()
		if d, ok := rw.(Divergent); ok {
			raw = d.New
		}
		if raw == nil {
			resolved[old] = []ids.CommitId{old}
			continue
		}
		seen := make(map[ids.CommitId]bool, len(raw))
		out := make([]ids.CommitId, 0, len(raw))
		for _, n := range raw {
			for _, rep := range resolveOne(n) {
				if !seen[rep] {
					seen[rep] = true
					out = append(out, rep)
				}
			}
		}
		resolved[old] = out
	}
	return resolved
}

// topoSortLedgerKeys returns the ledger's keys ordered so that, for any key
// K whose NewParentIDs includes another key K', K' precedes K. Panics with
// ledgerCycleError if no such order exists.
func (r *MutableRepo) topoSortLedgerKeys() []ids.CommitId {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[ids.CommitId]int, len(r.parentMapping))
	order := make([]ids.CommitId, 0, len(r.parentMapping))

	var visit func(id ids.CommitId)
	visit = func(id ids.CommitId) {
		switch state[id] {
		case visited:
			return
		case visiting:
			panic(&ledgerCycleError{CommitID: id})
		}
		state[id] = visiting
		if rw, ok := r.parentMapping[id]; ok {
			for _, n := range rw.NewParentIDs() {
				if _, isKey := r.parentMapping[n]; isKey {
					visit(n)
				}
			}
		}
		state[id] = visited
		order = append(order, id)
	}

	keys := make([]ids.CommitId, 0, len(r.parentMapping))
	for k := range r.parentMapping {
		keys = append(keys, k)
	}
	for _, k := range ids.SortCommitIds(keys) {
		visit(k)
	}
	return order
}
