// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

import (
	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
)

// SetLocalBookmarkTarget sets name to point at target outright, replacing
// any existing (possibly conflicted) value without attempting a merge.
func (r *MutableRepo) SetLocalBookmarkTarget(name string, target refs.RefTarget) {
	if target.IsAbsent() {
		delete(r.view.LocalBookmarks, name)
		return
	}
	r.view.LocalBookmarks[name] = target
}

// MergeLocalBookmarkTarget 3-way merges target into the current value of
// name using base as the common ancestor, rather than overwriting it
// outright — used when applying a remote-tracking bookmark's movement
// without discarding local-only changes.
func (r *MutableRepo) MergeLocalBookmarkTarget(name string, base, target refs.RefTarget) {
	current := r.view.LocalBookmarks[name]
	merged := refs.MergeRefTargets(r.index, current, base, target)
	r.SetLocalBookmarkTarget(name, merged)
}

// TrackRemoteBookmark marks (remote, name) as tracked, so it participates
// in local-bookmark 3-way merges from now on.
func (r *MutableRepo) TrackRemoteBookmark(remote, name string) {
	r.ensureRemoteView(remote)
	rr := r.view.RemoteViews[remote][name]
	rr.State = refs.RemoteRefStateTracked
	r.view.RemoteViews[remote][name] = rr
}

// UntrackRemoteBookmark marks (remote, name) as no longer tracked; its
// target is retained (a future fetch may still observe it) but it stops
// participating in local bookmark merges.
func (r *MutableRepo) UntrackRemoteBookmark(remote, name string) {
	r.ensureRemoteView(remote)
	rr := r.view.RemoteViews[remote][name]
	rr.State = refs.RemoteRefStateNew
	r.view.RemoteViews[remote][name] = rr
}

func (r *MutableRepo) ensureRemoteView(remote string) {
	if r.view.RemoteViews[remote] == nil {
		r.view.RemoteViews[remote] = make(map[string]refs.RemoteRef)
	}
}

// SetTagTarget sets a tag's target outright, mirroring
// SetLocalBookmarkTarget.
func (r *MutableRepo) SetTagTarget(name string, target refs.RefTarget) {
	if target.IsAbsent() {
		delete(r.view.Tags, name)
		return
	}
	r.view.Tags[name] = target
}

// SetGitRefTarget sets a raw git-ref-shaped reference outright.
func (r *MutableRepo) SetGitRefTarget(name plumbing.ReferenceName, target refs.RefTarget) {
	if target.IsAbsent() {
		delete(r.view.GitRefs, name)
		return
	}
	r.view.GitRefs[name] = target
}

// RemoveRemote drops every remote-tracking ref recorded for remote.
func (r *MutableRepo) RemoveRemote(remote string) {
	delete(r.view.RemoteViews, remote)
}

// RenameRemote moves every remote-tracking ref from oldName to newName,
// merging into any refs already recorded under newName.
func (r *MutableRepo) RenameRemote(oldName, newName string) {
	old, ok := r.view.RemoteViews[oldName]
	if !ok {
		return
	}
	delete(r.view.RemoteViews, oldName)
	r.ensureRemoteView(newName)
	for name, rr := range old {
		existing, has := r.view.RemoteViews[newName][name]
		if !has {
			r.view.RemoteViews[newName][name] = rr
			continue
		}
		merged := refs.MergeRemoteRefs(r.index, existing, refs.RemoteRef{}, rr)
		r.view.RemoteViews[newName][name] = merged
	}
}

// AddHead adds id as a new head if the current heads don't already
// subsume it; used when a command writes a new commit that should become
// a head (e.g. a fresh working-copy commit with no bookmark pointing at
// it yet).
func (r *MutableRepo) AddHead(id ids.CommitId) {
	r.view.HeadIDs[id] = true
}

// RemoveHead drops id from the explicit head set; callers typically
// combine this with AddHead for its replacement before the next
// EnforceInvariants pass.
func (r *MutableRepo) RemoveHead(id ids.CommitId) {
	delete(r.view.HeadIDs, id)
}
