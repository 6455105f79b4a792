// Package ids defines the opaque, content-addressed identifiers used
// throughout the repository core: commit ids, change ids, tree ids and
// operation ids. All four share the same underlying shape (a BLAKE3 digest,
// hex-encoded at the edges) but are kept as distinct Go types so that the
// compiler rejects accidentally passing a ChangeId where a CommitId is
// expected.
package ids

import (
	"bytes"
	"sort"

	"github.com/antgroup/hugevcs/modules/plumbing"
)

// CommitId uniquely identifies a commit object in the commit store.
// Equality is byte equality; a CommitId never changes meaning once minted.
type CommitId struct {
	h plumbing.Hash
}

// ChangeId is a secondary, user-stable identity attached to a commit at
// creation time. Unlike CommitId it survives rewrites: every commit
// descending from an edit of the same logical change keeps the same
// ChangeId, which is how divergence (multiple commits, one change) is
// detected.
type ChangeId struct {
	h plumbing.Hash
}

// TreeId identifies the root of a path -> blob mapping.
type TreeId struct {
	h plumbing.Hash
}

// OperationId identifies a node in the operation log.
type OperationId struct {
	h plumbing.Hash
}

// RootCommitId is the distinguished commit every other commit ultimately
// descends from. It has no parents, an empty tree, and can never be
// rewritten or abandoned.
var RootCommitId = CommitId{h: plumbing.ZeroHash}

// RootOperationId is the distinguished parent of the first operation ever
// recorded against a freshly initialized repository.
var RootOperationId = OperationId{h: plumbing.ZeroHash}

func NewCommitId(h plumbing.Hash) CommitId       { return CommitId{h: h} }
func NewChangeId(h plumbing.Hash) ChangeId       { return ChangeId{h: h} }
func NewTreeId(h plumbing.Hash) TreeId           { return TreeId{h: h} }
func NewOperationId(h plumbing.Hash) OperationId { return OperationId{h: h} }

func CommitIdFromHex(s string) (CommitId, error) {
	h, err := plumbing.NewHashEx(s)
	if err != nil {
		return CommitId{}, err
	}
	return CommitId{h: h}, nil
}

func ChangeIdFromHex(s string) (ChangeId, error) {
	h, err := plumbing.NewHashEx(s)
	if err != nil {
		return ChangeId{}, err
	}
	return ChangeId{h: h}, nil
}

func OperationIdFromHex(s string) (OperationId, error) {
	h, err := plumbing.NewHashEx(s)
	if err != nil {
		return OperationId{}, err
	}
	return OperationId{h: h}, nil
}

func (id CommitId) Hash() plumbing.Hash { return id.h }
func (id CommitId) String() string      { return id.h.String() }
func (id CommitId) IsRoot() bool        { return id == RootCommitId }
func (id CommitId) IsZero() bool        { return id.h.IsZero() }

func (id ChangeId) Hash() plumbing.Hash { return id.h }
func (id ChangeId) String() string      { return id.h.String() }
func (id ChangeId) IsZero() bool        { return id.h.IsZero() }

func (id TreeId) Hash() plumbing.Hash { return id.h }
func (id TreeId) String() string      { return id.h.String() }
func (id TreeId) IsZero() bool        { return id.h.IsZero() }

func (id OperationId) Hash() plumbing.Hash { return id.h }
func (id OperationId) String() string      { return id.h.String() }
func (id OperationId) IsRoot() bool        { return id == RootOperationId }

// CommitIdSlice attaches sort.Interface to []CommitId, ordering
// lexicographically on the underlying hex bytes. Used wherever the spec
// calls for a deterministic total order over an otherwise-unordered set of
// commit ids (e.g. the ledger keys in topoSortLedgerKeys, View.HeadsSorted).
type CommitIdSlice []CommitId

func (s CommitIdSlice) Len() int      { return len(s) }
func (s CommitIdSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s CommitIdSlice) Less(i, j int) bool {
	return bytes.Compare(s[i].h[:], s[j].h[:]) < 0
}

// SortCommitIds returns a sorted copy of ids, ascending lexicographically.
func SortCommitIds(ids []CommitId) []CommitId {
	out := make([]CommitId, len(ids))
	copy(out, ids)
	sort.Sort(CommitIdSlice(out))
	return out
}

// UniqueStable removes duplicate ids while preserving the order of first
// occurrence, matching the "stable unique" requirement of new_parents.
func UniqueStable(ids []CommitId) []CommitId {
	seen := make(map[CommitId]bool, len(ids))
	out := make([]CommitId, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
