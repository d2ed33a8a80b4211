/*
Copyright (c) 2023-2026 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package routing

import (
	"os"
	"path/filepath"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	yaml "go.yaml.in/yaml/v3"
)

// persistedEntry is one row of the on-disk routing table file (spec §6: "one record per
// provisioned entry, fields participantId, addressKind, kind-specific fields, isGloballyVisible").
type persistedEntry struct {
	ParticipantID     string        `yaml:"participantId"`
	Address           address.Record `yaml:"address"`
	IsGloballyVisible bool          `yaml:"isGloballyVisible"`
}

type persistedFile struct {
	Entries []persistedEntry `yaml:"entries"`
}

// LoadFromFile populates t's sticky entries from the YAML file at t.persistPath.
// A missing file is treated as an empty table, not an error. An unreadable or malformed
// file is also treated as empty, with the parse error returned so the caller can log it;
// construction of the router must proceed regardless (spec §7: "abort load, log, continue
// with empty sticky set"). Records with an unrecognized address kind are skipped.
func (t *Table) LoadFromFile() error {
	data, err := os.ReadFile(t.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Trace(err)
	}
	var pf persistedFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return errors.Trace(err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	next := t.copyOf()
	for _, pe := range pf.Entries {
		if !address.KnownKind(pe.Address.Kind) {
			continue
		}
		addr := address.FromRecord(pe.Address)
		if err := addr.Validate(); err != nil {
			continue
		}
		next[pe.ParticipantID] = Entry{
			ParticipantID:     pe.ParticipantID,
			Address:           addr,
			IsGloballyVisible: pe.IsGloballyVisible,
			IsSticky:          true,
		}
	}
	t.snapshot.Store(&next)
	return nil
}

// persistLocked writes the sticky subset of snapshot to t.persistPath atomically
// (write to a temp file in the same directory, then rename). Must be called with
// writeMu held. A table with no persistPath configured is a no-op, useful for tests
// and for child routers that never provision entries locally.
func (t *Table) persistLocked(snapshot map[string]Entry) error {
	if t.persistPath == "" {
		return nil
	}
	pf := persistedFile{}
	for _, e := range snapshot {
		if !e.IsSticky {
			continue
		}
		pf.Entries = append(pf.Entries, persistedEntry{
			ParticipantID:     e.ParticipantID,
			Address:           e.Address.ToRecord(),
			IsGloballyVisible: e.IsGloballyVisible,
		})
	}
	data, err := yaml.Marshal(pf)
	if err != nil {
		return errors.Trace(err)
	}

	dir := filepath.Dir(t.persistPath)
	tmp, err := os.CreateTemp(dir, ".routing-table-*.tmp")
	if err != nil {
		return errors.Trace(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Trace(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Trace(err)
	}
	if err := os.Rename(tmpName, t.persistPath); err != nil {
		os.Remove(tmpName)
		return errors.Trace(err)
	}
	return nil
}
