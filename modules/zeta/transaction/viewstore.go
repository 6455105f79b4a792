// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package transaction

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/refs"
	"github.com/antgroup/hugevcs/modules/zeta/view"
)

// ViewStore persists a View snapshot keyed by a content-addressed id,
// giving an Operation's abstract "view-id" pointer somewhere concrete to
// point at. No wire format for views is specified by the on-disk-format
// Non-goal; this JSON shape is this implementation's own choice, parallel
// to opstore.FileStore's per-operation JSON files.
type ViewStore interface {
	SaveView(v *view.View) (string, error)
	LoadView(id string) (*view.View, error)
}

type wireRefTarget struct {
	Values []*string `json:"values"`
}

func encodeRefTarget(rt refs.RefTarget) wireRefTarget {
	values := rt.Values()
	out := make([]*string, len(values))
	for i, v := range values {
		if v != nil {
			s := v.String()
			out[i] = &s
		}
	}
	return wireRefTarget{Values: out}
}

func decodeRefTarget(w wireRefTarget) (refs.RefTarget, error) {
	values := make([]*ids.CommitId, len(w.Values))
	for i, s := range w.Values {
		if s == nil {
			continue
		}
		cid, err := ids.CommitIdFromHex(*s)
		if err != nil {
			return refs.RefTarget{}, err
		}
		values[i] = &cid
	}
	return refs.FromMerge(values), nil
}

type wireRemoteRef struct {
	Target wireRefTarget `json:"target"`
	State  int           `json:"state"`
}

type wireView struct {
	HeadIDs        []string                           `json:"head_ids"`
	WCCommitIDs    map[string]string                  `json:"wc_commit_ids"`
	LocalBookmarks map[string]wireRefTarget            `json:"local_bookmarks"`
	Tags           map[string]wireRefTarget            `json:"tags"`
	GitRefs        map[string]wireRefTarget            `json:"git_refs"`
	RemoteViews    map[string]map[string]wireRemoteRef `json:"remote_views"`
	GitHead        wireRefTarget                       `json:"git_head"`
}

func encodeView(v *view.View) (*wireView, error) {
	w := &wireView{
		WCCommitIDs:    make(map[string]string, len(v.WCCommitIDs)),
		LocalBookmarks: make(map[string]wireRefTarget, len(v.LocalBookmarks)),
		Tags:           make(map[string]wireRefTarget, len(v.Tags)),
		GitRefs:        make(map[string]wireRefTarget, len(v.GitRefs)),
		RemoteViews:    make(map[string]map[string]wireRemoteRef, len(v.RemoteViews)),
		GitHead:        encodeRefTarget(v.GitHead),
	}
	for id := range v.HeadIDs {
		w.HeadIDs = append(w.HeadIDs, id.String())
	}
	for ws, id := range v.WCCommitIDs {
		w.WCCommitIDs[ws] = id.String()
	}
	for name, t := range v.LocalBookmarks {
		w.LocalBookmarks[name] = encodeRefTarget(t)
	}
	for name, t := range v.Tags {
		w.Tags[name] = encodeRefTarget(t)
	}
	for name, t := range v.GitRefs {
		w.GitRefs[string(name)] = encodeRefTarget(t)
	}
	for remote, bms := range v.RemoteViews {
		out := make(map[string]wireRemoteRef, len(bms))
		for name, rr := range bms {
			out[name] = wireRemoteRef{Target: encodeRefTarget(rr.Target), State: int(rr.State)}
		}
		w.RemoteViews[remote] = out
	}
	return w, nil
}

func decodeView(w *wireView) (*view.View, error) {
	v := view.New()
	v.HeadIDs = make(map[ids.CommitId]bool, len(w.HeadIDs))
	for _, s := range w.HeadIDs {
		cid, err := ids.CommitIdFromHex(s)
		if err != nil {
			return nil, err
		}
		v.HeadIDs[cid] = true
	}
	for ws, s := range w.WCCommitIDs {
		cid, err := ids.CommitIdFromHex(s)
		if err != nil {
			return nil, err
		}
		v.WCCommitIDs[ws] = cid
	}
	for name, wt := range w.LocalBookmarks {
		t, err := decodeRefTarget(wt)
		if err != nil {
			return nil, err
		}
		v.LocalBookmarks[name] = t
	}
	for name, wt := range w.Tags {
		t, err := decodeRefTarget(wt)
		if err != nil {
			return nil, err
		}
		v.Tags[name] = t
	}
	for name, wt := range w.GitRefs {
		t, err := decodeRefTarget(wt)
		if err != nil {
			return nil, err
		}
		v.GitRefs[plumbing.ReferenceName(name)] = t
	}
	for remote, bms := range w.RemoteViews {
		out := make(map[string]refs.RemoteRef, len(bms))
		for name, wrr := range bms {
			t, err := decodeRefTarget(wrr.Target)
			if err != nil {
				return nil, err
			}
			out[name] = refs.RemoteRef{Target: t, State: refs.RemoteRefState(wrr.State)}
		}
		v.RemoteViews[remote] = out
	}
	gitHead, err := decodeRefTarget(w.GitHead)
	if err != nil {
		return nil, err
	}
	v.GitHead = gitHead
	return v, nil
}

// FileViewStore stores each view as a JSON file keyed by the BLAKE3 hash of
// its own encoding, under root/xx/yy/<hash>.json — the same
// directory-sharding convention as the commit store and opstore.FileStore.
type FileViewStore struct {
	root string
}

func NewFileViewStore(root string) (*FileViewStore, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, err
	}
	return &FileViewStore{root: root}, nil
}

func (s *FileViewStore) path(id string) string {
	return filepath.Join(s.root, id[:2], id[2:4], id+".json")
}

func (s *FileViewStore) SaveView(v *view.View) (string, error) {
	w, err := encodeView(v)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return "", err
	}
	hasher := plumbing.NewHasher()
	_, _ = hasher.Write(data)
	id := hasher.Sum().String()

	p := s.path(id)
	if _, err := os.Stat(p); err == nil {
		return id, nil // content-addressed: already stored
	}
	if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "temp_view")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, p); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileViewStore) LoadView(id string) (*view.View, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var w wireView
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return decodeView(&w)
}
