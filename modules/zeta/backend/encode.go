// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/object"
)

// WriteEncoded encodes and content-addresses e (a commit), returning its
// resulting object id.
func (d *Database) WriteEncoded(e object.Encoder) (oid plumbing.Hash, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rw.WriteEncoded(e)
}
