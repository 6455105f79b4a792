// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package progress renders rebase_descendants' per-commit progress
// callback as a terminal bar, the way pkg/zeta/transfer.go renders object
// transfer progress: an mpb.Bar incremented once per visited commit.
package progress

import (
	"fmt"
	"os"

	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const defaultWidth = 80

// Reporter renders the outcome of a rebase_descendants/transform_descendants
// pass as a single progress bar, counted against a known (or unknown, -1)
// total number of descendants.
type Reporter struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewReporter starts a bar labelled label, counting up to total (-1 for an
// unknown total; the bar keeps the same style and percentage decorator
// either way).
func NewReporter(label string, total int) *Reporter {
	p := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithAutoRefresh(), mpb.WithWidth(defaultWidth))
	bar := p.New(int64(total),
		mpb.BarStyle().Filler("#").Padding(" "),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label), C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.BarWidth(defaultWidth),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return &Reporter{p: p, bar: bar}
}

// Func adapts the Reporter into the mutablerepo.ProgressFunc that
// RebaseOrReparentDescendantsWithOptions accepts.
func (r *Reporter) Func() mutablerepo.ProgressFunc {
	return func(old *object.Commit, kind mutablerepo.RebasedCommitKind, newCommit *object.Commit) {
		r.bar.Increment()
	}
}

// Wait blocks until the bar has finished rendering its final frame.
func (r *Reporter) Wait() {
	r.p.Wait()
}

// Abort marks the bar as aborted, e.g. after a driver returns an error
// partway through.
func (r *Reporter) Abort() {
	r.bar.Abort(true)
	r.p.Wait()
}

// Summary renders a short, bar-free completion line for callers that don't
// want a live bar (e.g. non-interactive output), mirroring the "num_
// reparented, num_rebased" lines restore.rs/abandon.rs print.
func Summary(reparented, rebased int) string {
	switch {
	case reparented > 0 && rebased > 0:
		return fmt.Sprintf("reparented %d commits, rebased %d commits", reparented, rebased)
	case reparented > 0:
		return fmt.Sprintf("reparented %d commits", reparented)
	case rebased > 0:
		return fmt.Sprintf("rebased %d commits", rebased)
	default:
		return "nothing changed"
	}
}
