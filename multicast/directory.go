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

// Package multicast implements the multicast-receiver bookkeeping described in spec §4.1.3
// and §4.1.4: the local subscriber directory, the per-transport skeleton registry that
// turns a subscription into a native SUBSCRIBE, and the calculator that derives the
// global multicast address a locally-hosted provider publishes to.
package multicast

import (
	"sync"
	"time"

	"github.com/relaymesh/msgrouter/address"
)

// Receiver identifies one local subscriber of a multicastId and the provider it was
// registered against (spec §3's MulticastReceiver entity). The Directory keys receivers
// by (multicastId, subscriberParticipantId), so registering the same pair again against
// a different provider replaces the earlier record.
type Receiver struct {
	MulticastID             string
	SubscriberParticipantID string
	ProviderParticipantID   string

	// ExpiryHint is an opaque keep-alive interval supplied by the subscriber. The router
	// stores and returns it but never interprets it; QoS/arbitration is out of scope.
	ExpiryHint *time.Duration
}

// Directory maps a multicastId to its set of local subscriber participant ids. A single
// mutex guards the whole map, matching spec §5's "single multicast directory lock": the
// directory is mutated far less often than messages are dispatched, so coarse locking
// here does not compete with the router's hot path.
type Directory struct {
	mu   sync.Mutex
	subs map[string]map[string]Receiver // multicastId -> subscriberParticipantId -> Receiver
}

// NewDirectory constructs an empty directory.
func NewDirectory() *Directory {
	return &Directory{subs: make(map[string]map[string]Receiver)}
}

// Add registers subscriberParticipantID as a local receiver of multicastID from
// providerParticipantID. Returns true if this is the first receiver for multicastID
// (the caller should register the native subscription in that case).
func (d *Directory) Add(r Receiver) (isFirst bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.subs[r.MulticastID]
	if !ok {
		set = make(map[string]Receiver)
		d.subs[r.MulticastID] = set
	}
	isFirst = len(set) == 0
	set[r.SubscriberParticipantID] = r
	return isFirst
}

// Remove deregisters subscriberParticipantID from multicastID. Returns true if this was
// the last receiver for multicastID (the caller should tear down the native subscription).
func (d *Directory) Remove(multicastID, subscriberParticipantID string) (wasLast bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.subs[multicastID]
	if !ok {
		return false
	}
	delete(set, subscriberParticipantID)
	if len(set) == 0 {
		delete(d.subs, multicastID)
		return true
	}
	return false
}

// Subscribers returns a snapshot of the local receivers of multicastID.
func (d *Directory) Subscribers(multicastID string) []Receiver {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.subs[multicastID]
	if !ok {
		return nil
	}
	out := make([]Receiver, 0, len(set))
	for _, r := range set {
		out = append(out, r)
	}
	return out
}

// AddressCalculator computes the global address a locally-hosted provider's multicast
// publishes to, for republication onto the global transport (spec §4.1.3, §2 item 5).
type AddressCalculator interface {
	GlobalAddress(providerParticipantID, multicastID string) (address.Address, error)
}
