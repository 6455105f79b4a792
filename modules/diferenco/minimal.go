package diferenco

import (
	"context"

	"github.com/antgroup/hugevcs/modules/diferenco/lcs"
)

// MinimalDiff: longest-common-subsequence diff via lcs.DiffSlices, O(len(L1)*len(L2))
func MinimalDiff[E comparable](ctx context.Context, L1 []E, L2 []E) ([]Change, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	diffs := lcs.DiffSlices(L1, L2)
	changes := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		changes = append(changes, Change{P1: d.Start, P2: d.ReplStart, Del: d.End - d.Start, Ins: d.ReplEnd - d.ReplStart})
	}
	return changes, nil
}
