// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package opstore

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/antgroup/hugevcs/modules/ids"
)

// MySQLStore is the alternate Operation backend for deployments that want
// the operation log queryable as a table rather than a directory of
// loose files, mirroring the commit store's choice between a file and an
// S3 backend.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS zeta_operations (
		id VARCHAR(128) PRIMARY KEY,
		parents TEXT NOT NULL,
		start_ts BIGINT NOT NULL,
		end_ts BIGINT NOT NULL,
		description TEXT NOT NULL,
		view_id VARCHAR(128) NOT NULL,
		tags TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error { return s.db.Close() }

func (s *MySQLStore) RootOperationID() ids.OperationId {
	return ids.RootOperationId
}

func (s *MySQLStore) ReadOperation(id ids.OperationId) (*Operation, error) {
	if id.IsRoot() {
		return &Operation{ID: id}, nil
	}
	row := s.db.QueryRow(
		`SELECT parents, start_ts, end_ts, description, view_id, tags FROM zeta_operations WHERE id = ?`,
		id.String(),
	)
	var parentsCSV, description, viewID, tagsJSON string
	var startTS, endTS int64
	if err := row.Scan(&parentsCSV, &startTS, &endTS, &description, &viewID, &tagsJSON); err != nil {
		return nil, err
	}
	op := &Operation{
		ID:          id,
		Start:       time.Unix(startTS, 0),
		End:         time.Unix(endTS, 0),
		Description: description,
		ViewID:      viewID,
	}
	if parentsCSV != "" {
		for _, p := range strings.Split(parentsCSV, ",") {
			pid, err := ids.OperationIdFromHex(p)
			if err != nil {
				return nil, err
			}
			op.Parents = append(op.Parents, pid)
		}
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &op.Tags); err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (s *MySQLStore) WriteOperation(op *Operation) error {
	parents := make([]string, 0, len(op.Parents))
	for _, p := range op.Parents {
		parents = append(parents, p.String())
	}
	tagsJSON := "{}"
	if len(op.Tags) > 0 {
		b, err := json.Marshal(op.Tags)
		if err != nil {
			return err
		}
		tagsJSON = string(b)
	}
	_, err := s.db.Exec(
		`INSERT INTO zeta_operations (id, parents, start_ts, end_ts, description, view_id, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE parents=VALUES(parents), start_ts=VALUES(start_ts),
		   end_ts=VALUES(end_ts), description=VALUES(description), view_id=VALUES(view_id), tags=VALUES(tags)`,
		op.ID.String(), strings.Join(parents, ","), op.Start.Unix(), op.End.Unix(), op.Description, op.ViewID, tagsJSON,
	)
	return err
}
