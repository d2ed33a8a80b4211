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

// Package routing holds the router's participant-to-address table: resolution,
// provisioned-vs-learned entry lifecycle, and atomic persistence of sticky entries.
package routing

import (
	"sync"
	"sync/atomic"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
)

// Entry is a single routing table row, keyed by participantId in the owning Table.
type Entry struct {
	ParticipantID     string
	Address           address.Address
	IsGloballyVisible bool
	// IsSticky marks a provisioned entry: persisted to disk and never forwarded to a parent.
	IsSticky bool
}

// Table is the participant-id-to-address routing table (spec §3, §4.1.2).
// Lookup is lock-free: readers dereference an atomically-swapped snapshot map.
// Mutations are serialized by a single writer lock and install a freshly copied snapshot.
type Table struct {
	snapshot atomic.Pointer[map[string]Entry]
	writeMu  sync.Mutex

	persistPath string
}

// NewTable constructs an empty routing table that persists sticky entries to path.
// Construction does not load persisted state; call LoadFromFile for that.
func NewTable(persistPath string) *Table {
	t := &Table{persistPath: persistPath}
	empty := make(map[string]Entry)
	t.snapshot.Store(&empty)
	return t
}

// current returns the live snapshot map. Callers must treat it as read-only.
func (t *Table) current() map[string]Entry {
	return *t.snapshot.Load()
}

// Resolve looks up the address currently on record for participantId.
func (t *Table) Resolve(participantID string) (address.Address, bool) {
	e, ok := t.current()[participantID]
	if !ok {
		return address.Address{}, false
	}
	return e.Address, true
}

// Lookup returns the full routing entry for participantId, if any.
func (t *Table) Lookup(participantID string) (Entry, bool) {
	e, ok := t.current()[participantID]
	return e, ok
}

// copyOf builds a new snapshot map identical to the current one, for the writer to mutate
// and install. Must be called with writeMu held.
func (t *Table) copyOf() map[string]Entry {
	cur := t.current()
	next := make(map[string]Entry, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	return next
}

// AddNextHop inserts or overwrites a learned routing entry. An existing sticky entry keeps
// its sticky flag while taking the new address (only AddProvisionedNextHop ever sets the
// flag); this call does not persist the table.
func (t *Table) AddNextHop(participantID string, addr address.Address, isGloballyVisible bool) error {
	if participantID == "" {
		return errors.New("participant id is required")
	}
	if err := addr.Validate(); err != nil {
		return errors.Trace(err)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	next := t.copyOf()
	existing, had := next[participantID]
	next[participantID] = Entry{
		ParticipantID:     participantID,
		Address:           addr,
		IsGloballyVisible: isGloballyVisible,
		IsSticky:          had && existing.IsSticky,
	}
	t.snapshot.Store(&next)
	return nil
}

// AddProvisionedNextHop inserts or replaces a sticky routing entry and persists the table.
// Per spec §4.1, a second call for the same participantId replaces the first outright.
func (t *Table) AddProvisionedNextHop(participantID string, addr address.Address) error {
	if participantID == "" {
		return errors.New("participant id is required")
	}
	if err := addr.Validate(); err != nil {
		return errors.Trace(err)
	}
	t.writeMu.Lock()
	next := t.copyOf()
	next[participantID] = Entry{
		ParticipantID: participantID,
		Address:       addr,
		IsSticky:      true,
	}
	t.snapshot.Store(&next)
	err := t.persistLocked(next)
	t.writeMu.Unlock()
	return err
}

// RemoveNextHop deletes the entry for participantId, persisting the table if the removed
// entry was sticky. Queued messages for participantId are left untouched by this call;
// the caller (router core) owns the decision of what, if anything, to do with them.
func (t *Table) RemoveNextHop(participantID string) (removed Entry, ok bool, err error) {
	if participantID == "" {
		return Entry{}, false, errors.New("participant id is required")
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	cur := t.current()
	removed, ok = cur[participantID]
	if !ok {
		return Entry{}, false, nil
	}
	next := t.copyOf()
	delete(next, participantID)
	t.snapshot.Store(&next)
	if removed.IsSticky {
		err = t.persistLocked(next)
	}
	return removed, true, err
}

// Len returns the number of entries currently in the table.
func (t *Table) Len() int {
	return len(t.current())
}

// Snapshot returns a shallow copy of all entries, for diagnostics and tests.
func (t *Table) Snapshot() map[string]Entry {
	cur := t.current()
	cp := make(map[string]Entry, len(cur))
	for k, v := range cur {
		cp[k] = v
	}
	return cp
}
