// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package refs

import (
	"github.com/antgroup/hugevcs/modules/ids"
)

// AncestryIndex is the reachability capability a RefTarget merge needs from
// the repository index. Kept narrow and structural (rather than importing
// the index package outright) so refs has no dependency on it.
type AncestryIndex interface {
	IsAncestor(ancestor, descendant ids.CommitId) bool
}

// RefTarget is the value of a ref: a k-way merge of commit ids, capable of
// representing a bookmark/tag/git-ref conflict rather than raising an error
// for one. Internally it is an odd-length alternating sequence of "added"
// and "removed" commit ids; here that sequence is split into two slices,
// adds (length k) and removes (length k-1), any entry of which may be nil
// to represent "no commit on this side" (e.g. the ref was absent on one
// side of a 3-way merge).
type RefTarget struct {
	adds    []*ids.CommitId
	removes []*ids.CommitId
}

// Absent returns the RefTarget denoting "this ref does not exist".
func Absent() RefTarget {
	return RefTarget{adds: []*ids.CommitId{nil}}
}

// Normal returns the RefTarget for an ordinary, conflict-free ref pointing
// at c.
func Normal(c ids.CommitId) RefTarget {
	cc := c
	return RefTarget{adds: []*ids.CommitId{&cc}}
}

// FromMerge builds a RefTarget from an explicit alternating sequence of
// optional commit ids (adds at even positions, removes at odd positions).
// ids must have odd length and at least one element.
func FromMerge(values []*ids.CommitId) RefTarget {
	if len(values) == 0 {
		return Absent()
	}
	var rt RefTarget
	for i, v := range values {
		if i%2 == 0 {
			rt.adds = append(rt.adds, v)
		} else {
			rt.removes = append(rt.removes, v)
		}
	}
	return rt
}

// Values returns the interleaved add/remove sequence this target was built
// from (inverse of FromMerge), letting callers round-trip a RefTarget
// through serialization without reaching into its unexported fields.
func (rt RefTarget) Values() []*ids.CommitId {
	out := make([]*ids.CommitId, 0, len(rt.adds)+len(rt.removes))
	for i, a := range rt.adds {
		out = append(out, a)
		if i < len(rt.removes) {
			out = append(out, rt.removes[i])
		}
	}
	return out
}

// IsAbsent reports whether the target is the trivial "no pointer" value.
func (rt RefTarget) IsAbsent() bool {
	return len(rt.adds) == 1 && len(rt.removes) == 0 && rt.adds[0] == nil
}

// IsResolved reports whether the target has no conflict, i.e. a single add
// and no removes (which includes the absent case).
func (rt RefTarget) IsResolved() bool {
	return len(rt.adds) == 1 && len(rt.removes) == 0
}

// AsNormal returns the single commit id this target resolves to, if any.
func (rt RefTarget) AsNormal() (ids.CommitId, bool) {
	if !rt.IsResolved() || rt.adds[0] == nil {
		return ids.CommitId{}, false
	}
	return *rt.adds[0], true
}

// AddedIds returns the non-nil "added" ids of the conflict, in order,
// including duplicates.
func (rt RefTarget) AddedIds() []ids.CommitId {
	out := make([]ids.CommitId, 0, len(rt.adds))
	for _, a := range rt.adds {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// RemovedIds returns the non-nil "removed" ids of the conflict, in order.
func (rt RefTarget) RemovedIds() []ids.CommitId {
	out := make([]ids.CommitId, 0, len(rt.removes))
	for _, r := range rt.removes {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func equalPtr(a, b *ids.CommitId) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Equal reports whether two targets denote the same (possibly conflicted)
// value.
func (rt RefTarget) Equal(other RefTarget) bool {
	if len(rt.adds) != len(other.adds) || len(rt.removes) != len(other.removes) {
		return false
	}
	for i := range rt.adds {
		if !equalPtr(rt.adds[i], other.adds[i]) {
			return false
		}
	}
	for i := range rt.removes {
		if !equalPtr(rt.removes[i], other.removes[i]) {
			return false
		}
	}
	return true
}

// simplify cancels each add against the first equal remove found anywhere
// in the remove list (order of adds preserved, removes searched
// unordered), exactly mirroring the generic conflict-simplification used
// throughout jj's Merge<T>: an add and a remove that denote the same value
// are a no-op pair and can be dropped together without changing the
// target's meaning.
func simplify(adds, removes []*ids.CommitId) ([]*ids.CommitId, []*ids.CommitId) {
	remaining := make([]*ids.CommitId, len(removes))
	copy(remaining, removes)
	newAdds := make([]*ids.CommitId, 0, len(adds))
	for _, add := range adds {
		cancelled := false
		for i, rem := range remaining {
			if equalPtr(add, rem) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				cancelled = true
				break
			}
		}
		if !cancelled {
			newAdds = append(newAdds, add)
		}
	}
	if len(newAdds) == 0 {
		newAdds = []*ids.CommitId{nil}
	}
	return newAdds, remaining
}

// absorbAncestors drops any added id that is a strict ancestor of another
// surviving added id: a ref that conflictingly points at both an old
// commit and one of its own descendants is simplified to just the
// descendant, since the old value is implied. When this reduces the
// conflict to a single survivor the result resolves outright; otherwise a
// fresh odd-length sequence is rebuilt from the survivors, reusing as many
// of the original removes as still fit (this multi-way reconstruction is
// a deliberate simplification: true k-way
// ancestry-aware removes bookkeeping is not recoverable after absorption
// without replaying the merge history, which this layer does not retain).
func absorbAncestors(index AncestryIndex, adds, removes []*ids.CommitId) ([]*ids.CommitId, []*ids.CommitId) {
	if index == nil || len(adds) <= 1 {
		return adds, removes
	}
	survivors := make([]*ids.CommitId, 0, len(adds))
	for i, a := range adds {
		if a == nil {
			survivors = append(survivors, a)
			continue
		}
		absorbed := false
		for j, b := range adds {
			if i == j || b == nil {
				continue
			}
			if index.IsAncestor(*a, *b) {
				absorbed = true
				break
			}
		}
		if !absorbed {
			survivors = append(survivors, a)
		}
	}
	if len(survivors) == len(adds) {
		return adds, removes
	}
	need := len(survivors) - 1
	newRemoves := make([]*ids.CommitId, need)
	for i := 0; i < need; i++ {
		if i < len(removes) {
			newRemoves[i] = removes[i]
		}
	}
	return survivors, newRemoves
}

// MergeRefTargets performs the 3-way merge described by the ref-conflict
// model: trivial when either side equals the base (or the sides agree with
// each other), otherwise a k-way union of both sides' adds against a
// removes list seeded by the base's own adds, simplified by term
// cancellation and then by ancestry absorption.
func MergeRefTargets(index AncestryIndex, self, base, other RefTarget) RefTarget {
	if self.Equal(base) {
		return other
	}
	if other.Equal(base) {
		return self
	}
	if self.Equal(other) {
		return self
	}
	rawAdds := make([]*ids.CommitId, 0, len(self.adds)+len(other.adds))
	rawAdds = append(rawAdds, self.adds...)
	rawAdds = append(rawAdds, other.adds...)
	rawRemoves := make([]*ids.CommitId, 0, len(self.removes)+len(other.removes)+len(base.adds))
	rawRemoves = append(rawRemoves, self.removes...)
	rawRemoves = append(rawRemoves, other.removes...)
	rawRemoves = append(rawRemoves, base.adds...)

	adds, removes := simplify(rawAdds, rawRemoves)
	adds, removes = absorbAncestors(index, adds, removes)
	return RefTarget{adds: adds, removes: removes}
}
