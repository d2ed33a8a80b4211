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

// Dispatcher receives a message handed to it by an in-process stub. Local service
// handlers and the browser/binder runtime register themselves under a skeleton handle.
type Dispatcher func(ctx context.Context, msg message.Message) error

// InProcessRegistry maps a skeleton handle name to the Dispatcher that serves it.
// It is shared between the router's InProcess Creator and whatever local runtime
// registers handlers (the part of the system this spec treats as an external collaborator).
type InProcessRegistry struct {
	dispatchers syncx.Map[string, Dispatcher]
}

// NewInProcessRegistry constructs an empty registry.
func NewInProcessRegistry() *InProcessRegistry {
	return &InProcessRegistry{}
}

// Register installs the Dispatcher that serves the named skeleton handle.
func (r *InProcessRegistry) Register(skeleton string, d Dispatcher) {
	r.dispatchers.Store(skeleton, d)
}

// Unregister removes the Dispatcher for the named skeleton handle.
func (r *InProcessRegistry) Unregister(skeleton string) {
	r.dispatchers.Delete(skeleton)
}

// inProcessStub delivers directly to a registered Dispatcher, with no transport hop.
type inProcessStub struct {
	registry *InProcessRegistry
	skeleton string
}

// Creator returns a Creator bound to this registry, for use in the Factory's kind→Creator
// map under address.InProcess.
func (r *InProcessRegistry) Creator() Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.InProcess {
			return nil, errors.Newf("not an in-process address: %s", addr)
		}
		return &inProcessStub{registry: r, skeleton: addr.Skeleton}, nil
	}
}

func (s *inProcessStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	d, ok := s.registry.dispatchers.Load(s.skeleton)
	if !ok {
		if onFailure != nil {
			onFailure(msg, errors.Newf("no in-process dispatcher registered for skeleton '%s'", s.skeleton))
		}
		return
	}
	if err := d(ctx, msg); err != nil && onFailure != nil {
		onFailure(msg, errors.Trace(err))
	}
}
