// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package opstore records the operation log: every transaction that
// commits produces one Operation referencing the op-heads it started from,
// and the op-heads store tracks which operations are current. Adapted from
// modules/zeta/reflog's on-disk locking idioms, since an operation record
// is itself a kind of append-only log entry.
package opstore

import (
	"time"

	"github.com/antgroup/hugevcs/modules/ids"
)

// Operation is one node in the operation DAG: parents are the op-heads
// observed when the transaction that produced it started.
type Operation struct {
	ID          ids.OperationId
	Parents     []ids.OperationId
	Start       time.Time
	End         time.Time
	Description string
	ViewID      string
	Tags        map[string]string
}

// Store persists and retrieves Operation records.
type Store interface {
	ReadOperation(id ids.OperationId) (*Operation, error)
	WriteOperation(op *Operation) error
	RootOperationID() ids.OperationId
}

// OpHeadsStore tracks the current set of operation heads, atomically
// swapped as transactions finish.
type OpHeadsStore interface {
	GetOpHeads() ([]ids.OperationId, error)
	UpdateOpHeads(old []ids.OperationId, new ids.OperationId) error
}
