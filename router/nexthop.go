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

package router

import (
	"context"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
)

// AddNextHop inserts or overwrites the routing entry for participantID (spec §4.1). After
// insertion, every message already queued for participantID is drained and dispatched. If
// this router is a child, the add is also forwarded to the parent so remote senders can
// reach this participant.
func (r *Router) AddNextHop(participantID string, addr address.Address, isGloballyVisible bool) error {
	if err := r.table.AddNextHop(participantID, addr, isGloballyVisible); err != nil {
		return errors.Trace(err)
	}
	r.drainQueueFor(participantID, addr)

	if r.hasParent.Load() {
		r.forwardAddNextHop(participantID, addr, isGloballyVisible)
	}
	return nil
}

// AddProvisionedNextHop is AddNextHop with the entry marked sticky: it survives restart,
// is always persisted, and is never forwarded to a parent (spec §4.1).
func (r *Router) AddProvisionedNextHop(participantID string, addr address.Address) error {
	if err := r.table.AddProvisionedNextHop(participantID, addr); err != nil {
		return errors.Trace(err)
	}
	r.drainQueueFor(participantID, addr)
	return nil
}

// ResolveNextHop looks up the address currently on record for participantID, the operation
// a parent router runs to answer a child's resolveNextHop RPC (spec §4.4, §6). It is a thin
// wrapper over the routing table: a parent router's own Route/AddNextHop calls are what keep
// that table current, so no separate resolution logic is needed here.
func (r *Router) ResolveNextHop(participantID string) (address.Address, bool, error) {
	if participantID == "" {
		return address.Address{}, false, errors.New("participant id is required")
	}
	addr, ok := r.table.Resolve(participantID)
	return addr, ok, nil
}

// RemoveNextHop deletes the routing entry for participantID. Queued messages for that id
// are retained: a future AddNextHop may still deliver them before their TTL (spec §4.1).
func (r *Router) RemoveNextHop(participantID string) error {
	_, ok, err := r.table.RemoveNextHop(participantID)
	if err != nil {
		return errors.Trace(err)
	}
	if ok && r.hasParent.Load() {
		r.forwardRemoveNextHop(participantID)
	}
	return nil
}

func (r *Router) drainQueueFor(participantID string, addr address.Address) {
	items := r.q.Drain(participantID)
	for _, item := range items {
		msg := item.Message
		onFailure := item.OnFailure
		r.submit(func() {
			r.dispatch(context.Background(), addr, msg, onFailure, 0)
		})
	}
}

func (r *Router) forwardAddNextHop(participantID string, addr address.Address, isGloballyVisible bool) {
	r.parentMu.RLock()
	p := r.parent
	r.parentMu.RUnlock()
	if p == nil {
		return
	}
	if err := p.AddNextHopAsync(participantID, addr, isGloballyVisible); err != nil && r.logger != nil {
		r.logger.LogWarn(context.Background(), "forwarding addNextHop to parent failed", "participant", participantID, "error", err)
	}
}

func (r *Router) forwardRemoveNextHop(participantID string) {
	r.parentMu.RLock()
	p := r.parent
	r.parentMu.RUnlock()
	if p == nil {
		return
	}
	if err := p.RemoveNextHopAsync(participantID); err != nil && r.logger != nil {
		r.logger.LogWarn(context.Background(), "forwarding removeNextHop to parent failed", "participant", participantID, "error", err)
	}
}
