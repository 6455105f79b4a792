// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mutablerepo

// dirtyCell guards the view's invariant-checked borrow: at most one
// outstanding borrow (taken by MutableRepo.View) at a time. Ported from repo.rs's dirty_cell
// module, which exists to catch the programming error of re-entering a
// view borrow while another is outstanding (e.g. a callback passed to
// TransformDescendants calling back into View() reentrantly). A MutableRepo
// is single-threaded per §5, so this is a re-entrancy guard, not a mutex —
// it panics instead of blocking.
type dirtyCell struct {
	borrowed bool
}

// borrow marks the cell outstanding, panicking if one is already held.
func (c *dirtyCell) borrow() {
	if c.borrowed {
		panic(&dirtyCellReentrantError{})
	}
	c.borrowed = true
}

func (c *dirtyCell) release() {
	c.borrowed = false
}

type dirtyCellReentrantError struct{}

func (e *dirtyCellReentrantError) Error() string {
	return "ensure_clean called while a view borrow was already outstanding"
}
