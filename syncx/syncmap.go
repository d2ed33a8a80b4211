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

// Package syncx holds a small mutex-protected generic map used by the transport package's
// per-connection registries: the in-process and WebSocket dispatcher tables, the HTTP
// long-poll mailbox table, the WebSocket skeleton's active-subscription set, and the
// messaging-stub factory's per-address creation locks. Each registry is keyed by a
// participant id, channel id, multicast id or address and needs nothing beyond
// load/store/delete under a lock, so the API here is kept to exactly that.
package syncx

import (
	"sync"
)

// Map is a map protected by a mutex.
type Map[K comparable, V any] struct {
	m   map[K]V
	mux sync.Mutex
}

// Load returns the value stored in the map for a key, or the zero value if no value is present.
// The ok result indicates whether a value was found in the map.
func (sm *Map[K, V]) Load(key K) (value V, ok bool) {
	sm.mux.Lock()
	if sm.m != nil {
		value, ok = sm.m[key]
	}
	sm.mux.Unlock()
	return value, ok
}

// Store sets the value for a key.
func (sm *Map[K, V]) Store(key K, value V) {
	sm.mux.Lock()
	if sm.m == nil {
		sm.m = make(map[K]V, 128)
	}
	sm.m[key] = value
	sm.mux.Unlock()
}

// Delete deletes the value for a key.
func (sm *Map[K, V]) Delete(key K) (value V, deleted bool) {
	sm.mux.Lock()
	if sm.m != nil {
		value, deleted = sm.m[key]
		delete(sm.m, key)
	}
	sm.mux.Unlock()
	return value, deleted
}

// LoadOrStoreFunc returns the existing value for the key if present.
// Otherwise, it stores and returns the value produced by the callback. The loaded result is true if the value was loaded, false if stored.
func (sm *Map[K, V]) LoadOrStoreFunc(key K, value func() V) (actual V, loaded bool) {
	sm.mux.Lock()
	if sm.m == nil {
		sm.m = make(map[K]V, 128)
	}
	actual, ok := sm.m[key]
	if ok {
		sm.mux.Unlock()
		return actual, true
	}
	newValue := value()
	sm.m[key] = newValue
	sm.mux.Unlock()
	return newValue, false
}
