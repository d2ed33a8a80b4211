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

package transport

import (
	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/syncx"
)

// WSSkeleton is the WebSocket-side MulticastSubscriber: registering a multicast sends a
// native subscribe control frame to every connected client interested in that feed, via
// a caller-supplied broadcaster (the accept loop and framing live outside router scope).
type WSSkeleton struct {
	broadcast func(multicastID string, subscribe bool) error
	active    syncx.Map[string, bool]
}

// NewWSSkeleton builds a skeleton that calls broadcast(multicastID, true) on register and
// broadcast(multicastID, false) on unregister.
func NewWSSkeleton(broadcast func(multicastID string, subscribe bool) error) *WSSkeleton {
	return &WSSkeleton{broadcast: broadcast}
}

func (s *WSSkeleton) RegisterMulticastSubscription(multicastID string) error {
	if err := s.broadcast(multicastID, true); err != nil {
		return errors.Trace(err)
	}
	s.active.Store(multicastID, true)
	return nil
}

func (s *WSSkeleton) UnregisterMulticastSubscription(multicastID string) error {
	if err := s.broadcast(multicastID, false); err != nil {
		return errors.Trace(err)
	}
	s.active.Delete(multicastID)
	return nil
}
