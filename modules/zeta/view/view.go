// Package view implements the logical repository state at one operation:
// the head commits, per-workspace working-copy pointers, bookmarks, tags,
// git refs and remote-tracking refs. It is grounded on the View type and
// its enforce_view_invariants routine in the original Rust MutableRepo
// (lib/src/repo.rs), re-expressed as a plain Go value type plus a
// dirty-cell wrapper used by mutablerepo.
package view

import (
	"sort"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
)

// Index is the narrow reachability capability the view needs to enforce
// its own invariants and to drive ref merges. Satisfied structurally by
// modules/zeta/index.Index.
type Index interface {
	refs.AncestryIndex
	// Heads returns the subset of candidates that are not an ancestor of
	// any other candidate in the slice.
	Heads(candidates []ids.CommitId) []ids.CommitId
}

// View is the mutable logical state of a repository at one operation.
type View struct {
	HeadIDs        map[ids.CommitId]bool
	WCCommitIDs    map[string]ids.CommitId
	LocalBookmarks map[string]refs.RefTarget
	Tags           map[string]refs.RefTarget
	GitRefs        map[plumbing.ReferenceName]refs.RefTarget
	RemoteViews    map[string]map[string]refs.RemoteRef
	GitHead        refs.RefTarget
}

// New returns an empty view seeded with nothing but the root commit as its
// sole head, matching a freshly initialized repository.
func New() *View {
	v := &View{
		HeadIDs:        map[ids.CommitId]bool{ids.RootCommitId: true},
		WCCommitIDs:    map[string]ids.CommitId{},
		LocalBookmarks: map[string]refs.RefTarget{},
		Tags:           map[string]refs.RefTarget{},
		GitRefs:        map[plumbing.ReferenceName]refs.RefTarget{},
		RemoteViews:    map[string]map[string]refs.RemoteRef{},
		GitHead:        refs.Absent(),
	}
	return v
}

// Clone returns a deep-enough copy of v suitable for independent mutation
// (used when a MutableRepo is created from a ReadonlyRepo's frozen view).
func (v *View) Clone() *View {
	out := &View{
		HeadIDs:        make(map[ids.CommitId]bool, len(v.HeadIDs)),
		WCCommitIDs:    make(map[string]ids.CommitId, len(v.WCCommitIDs)),
		LocalBookmarks: make(map[string]refs.RefTarget, len(v.LocalBookmarks)),
		Tags:           make(map[string]refs.RefTarget, len(v.Tags)),
		GitRefs:        make(map[plumbing.ReferenceName]refs.RefTarget, len(v.GitRefs)),
		RemoteViews:    make(map[string]map[string]refs.RemoteRef, len(v.RemoteViews)),
		GitHead:        v.GitHead,
	}
	for k, val := range v.HeadIDs {
		out.HeadIDs[k] = val
	}
	for k, val := range v.WCCommitIDs {
		out.WCCommitIDs[k] = val
	}
	for k, val := range v.LocalBookmarks {
		out.LocalBookmarks[k] = val
	}
	for k, val := range v.Tags {
		out.Tags[k] = val
	}
	for k, val := range v.GitRefs {
		out.GitRefs[k] = val
	}
	for remote, bms := range v.RemoteViews {
		cp := make(map[string]refs.RemoteRef, len(bms))
		for n, r := range bms {
			cp[n] = r
		}
		out.RemoteViews[remote] = cp
	}
	return out
}

// HeadsSorted returns the current heads in a deterministic (lexicographic)
// order, for display and for deterministic iteration by callers.
func (v *View) HeadsSorted() []ids.CommitId {
	out := make([]ids.CommitId, 0, len(v.HeadIDs))
	for id := range v.HeadIDs {
		out = append(out, id)
	}
	return ids.SortCommitIds(out)
}

// EnforceInvariants restores the two structural invariants on head_ids:
// non-empty (padded with the root commit), and no element an ancestor of
// another when there is more than one. Grounded on repo.rs's
// enforce_view_invariants, invoked lazily by the dirty cell on read.
func EnforceInvariants(index Index, v *View) {
	if len(v.HeadIDs) == 0 {
		v.HeadIDs = map[ids.CommitId]bool{ids.RootCommitId: true}
		return
	}
	if len(v.HeadIDs) > 1 {
		delete(v.HeadIDs, ids.RootCommitId)
		candidates := make([]ids.CommitId, 0, len(v.HeadIDs))
		for id := range v.HeadIDs {
			candidates = append(candidates, id)
		}
		heads := index.Heads(candidates)
		v.HeadIDs = make(map[ids.CommitId]bool, len(heads))
		for _, id := range heads {
			v.HeadIDs[id] = true
		}
	}
	if len(v.HeadIDs) == 0 {
		panic("view: enforce_view_invariants produced an empty head set")
	}
}

// SortedBookmarkNames returns bookmark names in lexicographic order, for
// deterministic iteration during ref updates and display.
func SortedBookmarkNames(m map[string]refs.RefTarget) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
