// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package opstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
)

// FileStore is the default on-disk Operation store: one JSON file per
// operation under root, directory-sharded the same way
// modules/zeta/backend shards commits.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(id ids.OperationId) string {
	h := id.String()
	return filepath.Join(s.root, h[:2], h[2:4], h)
}

func (s *FileStore) RootOperationID() ids.OperationId {
	return ids.RootOperationId
}

type wireOperation struct {
	ID          string            `json:"id"`
	Parents     []string          `json:"parents"`
	Start       int64             `json:"start"`
	End         int64             `json:"end"`
	Description string            `json:"description"`
	ViewID      string            `json:"view_id"`
	Tags        map[string]string `json:"tags,omitempty"`
}

func (s *FileStore) ReadOperation(id ids.OperationId) (*Operation, error) {
	if id.IsRoot() {
		return &Operation{ID: id}, nil
	}
	p := s.path(id)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	op := &Operation{
		Description: w.Description,
		ViewID:      w.ViewID,
		Tags:        w.Tags,
	}
	if op.ID, err = ids.OperationIdFromHex(w.ID); err != nil {
		return nil, err
	}
	for _, p := range w.Parents {
		pid, err := ids.OperationIdFromHex(p)
		if err != nil {
			return nil, err
		}
		op.Parents = append(op.Parents, pid)
	}
	op.Start = time.Unix(w.Start, 0)
	op.End = time.Unix(w.End, 0)
	return op, nil
}

func (s *FileStore) WriteOperation(op *Operation) error {
	w := wireOperation{
		ID:          op.ID.String(),
		Description: op.Description,
		ViewID:      op.ViewID,
		Tags:        op.Tags,
		Start:       op.Start.Unix(),
		End:         op.End.Unix(),
	}
	for _, p := range op.Parents {
		w.Parents = append(w.Parents, p.String())
	}
	data, err := json.MarshalIndent(&w, "", "  ")
	if err != nil {
		return err
	}
	p := s.path(op.ID)
	if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "temp_op")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

// FileOpHeadsStore stores the current operation heads as a small text file
// (one hex id per line), swapped via rename-on-write and guarded by an
// O_CREATE|O_EXCL lock file, matching reflog.go's lockPath idiom.
type FileOpHeadsStore struct {
	path string
}

func NewFileOpHeadsStore(root string) *FileOpHeadsStore {
	return &FileOpHeadsStore{path: filepath.Join(root, "op_heads", "heads")}
}

func (s *FileOpHeadsStore) GetOpHeads() ([]ids.OperationId, error) {
	fd, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ids.OperationId{ids.RootOperationId}, nil
		}
		return nil, err
	}
	defer fd.Close() // nolint
	var heads []ids.OperationId
	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h, err := plumbing.NewHashEx(line)
		if err != nil {
			return nil, err
		}
		heads = append(heads, ids.NewOperationId(h))
	}
	if len(heads) == 0 {
		return []ids.OperationId{ids.RootOperationId}, nil
	}
	return heads, nil
}

func (s *FileOpHeadsStore) UpdateOpHeads(old []ids.OperationId, new ids.OperationId) error {
	lockName := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(s.path), 0777); err != nil {
		return err
	}
	lockFd, err := os.OpenFile(lockName, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return plumbing.NewErrResourceLocked("op-heads", plumbing.ReferenceName(s.path))
		}
		return err
	}
	defer func() {
		_ = lockFd.Close()
		_ = os.Remove(lockName)
	}()

	current, err := s.GetOpHeads()
	if err != nil {
		return err
	}
	oldSet := make(map[ids.OperationId]bool, len(old))
	for _, o := range old {
		oldSet[o] = true
	}
	next := make([]ids.OperationId, 0, len(current)+1)
	for _, c := range current {
		if !oldSet[c] {
			next = append(next, c)
		}
	}
	next = append(next, new)

	var sb strings.Builder
	for _, h := range next {
		fmt.Fprintln(&sb, h.String())
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "temp_op_heads")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
