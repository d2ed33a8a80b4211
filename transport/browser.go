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
	"context"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/syncx"
)

// BrowserRegistry maps a browser/binder client address id to the Dispatcher that feeds
// its local binder channel, the distinguished local-delivery variant (spec §2.1) used by
// in-browser or bound-app runtimes rather than a raw network socket.
type BrowserRegistry struct {
	dispatchers syncx.Map[string, Dispatcher]
}

// NewBrowserRegistry constructs an empty registry.
func NewBrowserRegistry() *BrowserRegistry {
	return &BrowserRegistry{}
}

// Register installs the Dispatcher that serves the named client address id.
func (r *BrowserRegistry) Register(clientAddressID string, d Dispatcher) {
	r.dispatchers.Store(clientAddressID, d)
}

// Unregister removes the Dispatcher for a disconnected binder client.
func (r *BrowserRegistry) Unregister(clientAddressID string) {
	r.dispatchers.Delete(clientAddressID)
}

type browserStub struct {
	registry        *BrowserRegistry
	clientAddressID string
}

// Creator returns a Creator for address.Browser addresses backed by this registry.
func (r *BrowserRegistry) Creator() Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.Browser {
			return nil, errors.Newf("not a browser address: %s", addr)
		}
		return &browserStub{registry: r, clientAddressID: addr.ClientAddressID}, nil
	}
}

func (s *browserStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	d, ok := s.registry.dispatchers.Load(s.clientAddressID)
	if !ok {
		if onFailure != nil {
			onFailure(msg, errors.Newf("no binder dispatcher registered for '%s'", s.clientAddressID))
		}
		return
	}
	if err := d(context.Background(), msg); err != nil && onFailure != nil {
		onFailure(msg, errors.Trace(err))
	}
}
