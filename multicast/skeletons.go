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

package multicast

import (
	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/transport"
)

// SkeletonRegistry holds at most one MulticastSubscriber per address.Kind (spec §3's
// TransportRegistration entity), used to turn "provider P exports multicast M" into a
// native subscription (e.g. an MQTT SUBSCRIBE or a WebSocket-server multicast-join frame).
type SkeletonRegistry struct {
	skeletons map[address.Kind]transport.MulticastSubscriber
}

// NewSkeletonRegistry builds a registry from a fixed kind->skeleton mapping; skeletons
// are wired once at startup alongside the transport factory, not added dynamically.
func NewSkeletonRegistry(skeletons map[address.Kind]transport.MulticastSubscriber) *SkeletonRegistry {
	return &SkeletonRegistry{skeletons: skeletons}
}

// Skeleton returns the MulticastSubscriber registered for kind, or an error if none
// was wired — the "transport skeleton missing" branch of spec §4.1.4's resolution table.
func (r *SkeletonRegistry) Skeleton(kind address.Kind) (transport.MulticastSubscriber, error) {
	s, ok := r.skeletons[kind]
	if !ok {
		return nil, errors.Newf("no multicast subscriber skeleton registered for transport '%s'", kind)
	}
	return s, nil
}
