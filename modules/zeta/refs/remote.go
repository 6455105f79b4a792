// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package refs

// RemoteRefState distinguishes a remote-tracking ref that the user has
// explicitly started tracking from one merely observed during a fetch.
type RemoteRefState int

const (
	// RemoteRefStateNew marks a remote ref the local repository has seen
	// but is not tracking: it does not participate in local bookmark
	// merges.
	RemoteRefStateNew RemoteRefState = iota
	// RemoteRefStateTracked marks a remote ref the local repository
	// tracks: its target participates in 3-way merges with the local
	// bookmark of the same name.
	RemoteRefStateTracked
)

// RemoteRef is the value stored per (remote, bookmark-name) pair in a
// View's remote_views.
type RemoteRef struct {
	Target RefTarget
	State  RemoteRefState
}

// IsTracked reports whether this remote ref participates in local bookmark
// merges.
func (r RemoteRef) IsTracked() bool {
	return r.State == RemoteRefStateTracked
}

// MergeRemoteRefs merges the target of two remote refs and resolves their
// state: a Tracked state wins over New, matching the intent that once a
// remote is tracked by either side of a concurrent operation it stays
// tracked.
func MergeRemoteRefs(index AncestryIndex, self, base, other RemoteRef) RemoteRef {
	target := MergeRefTargets(index, self.Target, base.Target, other.Target)
	state := RemoteRefStateNew
	if self.State == RemoteRefStateTracked || other.State == RemoteRefStateTracked {
		state = RemoteRefStateTracked
	}
	return RemoteRef{Target: target, State: state}
}
