// Package scan provides small byte-slice helpers used by the magic
// detectors to bound how much of a candidate file they inspect.
package scan

import "bytes"

// Bytes is a byte slice with a couple of scan-bounding helpers attached.
type Bytes []byte

// DropLastLine truncates b to at most limit bytes, additionally dropping
// a trailing partial line so line-oriented detectors (CSV/TSV) never see
// a record truncated mid-line.
func (b *Bytes) DropLastLine(limit uint32) {
	s := []byte(*b)
	if limit > 0 && uint32(len(s)) > limit {
		s = s[:limit]
		if i := bytes.LastIndexByte(s, '\n'); i >= 0 {
			s = s[:i]
		}
	}
	*b = s
}
