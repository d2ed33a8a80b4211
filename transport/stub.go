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

// Package transport holds the MessagingStub/MessagingStubFactory and MulticastSubscriber
// collaborator interfaces the router core dispatches through (spec §4.2, §6), plus one
// concrete implementation per address.Kind.
package transport

import (
	"context"
	"sync"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/lru"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/routererr"
	"github.com/relaymesh/msgrouter/syncx"
)

// MessagingStub is a transport-specific one-shot send handle for a given address (spec glossary).
type MessagingStub interface {
	// Transmit sends msg. onFailure, if non-nil, is invoked at most once, and only on
	// failure. Some implementations (MQTT, WebSocket server) wait for the dial, write or
	// publish acknowledgement before returning; the router calls Transmit from its worker pool.
	Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback)
}

// Creator builds a new stub for addr. Implementations are provided by the transport-specific
// files in this package (inprocess.go, wsstub.go, mqttstub.go, httpchannel.go, browser.go).
type Creator func(addr address.Address) (MessagingStub, error)

// Factory maintains a registry of per-Kind Creators and a cache of live stubs keyed by
// address, so that two concurrent requests for the same address share one stub (spec §4.2).
type Factory struct {
	creators map[address.Kind]Creator
	cache    *lru.Cache[address.Address, MessagingStub]
	// creationLocks serializes stub construction per address so that two concurrent
	// Create calls for the same address never race to build duplicate stubs (spec §4.2).
	creationLocks syncx.Map[address.Address, *sync.Mutex]
}

// noAgeLimit disables the LRU cache's age-based eviction: a live stub is a connection
// handle, not a staleness-prone value, so it should only ever be evicted under weight
// pressure (maxStubs), never merely for having sat idle.
const noAgeLimit = 0

// NewFactory builds a Factory from a kind→Creator registry. maxStubs bounds how many idle
// stubs the cache retains before evicting the least recently used.
func NewFactory(creators map[address.Kind]Creator, maxStubs int) *Factory {
	return &Factory{
		creators: creators,
		cache:    lru.New[address.Address, MessagingStub](maxStubs, noAgeLimit),
	}
}

// Create returns the cached stub for addr, creating and caching one on first use.
func (f *Factory) Create(addr address.Address) (MessagingStub, error) {
	if stub, ok := f.cache.Load(addr); ok {
		return stub, nil
	}
	creator, ok := f.creators[addr.Kind]
	if !ok {
		return nil, errors.Trace(routererr.NoTransport)
	}

	lock, _ := f.creationLocks.LoadOrStoreFunc(addr, func() *sync.Mutex { return &sync.Mutex{} })
	lock.Lock()
	defer lock.Unlock()

	if stub, ok := f.cache.Load(addr); ok {
		return stub, nil
	}
	created, err := creator(addr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	f.cache.Store(addr, created)
	return created, nil
}

// Remove evicts the cached stub for addr, e.g. because the transport reported the address
// invalid (connection closed, topic rejected). The stub is re-created lazily on next Create.
func (f *Factory) Remove(addr address.Address) {
	f.cache.Delete(addr)
}
