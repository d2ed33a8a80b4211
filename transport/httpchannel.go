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

// HTTPChannelRegistry holds one pending-message mailbox per long-poll channel id, filled
// by Transmit and drained by the HTTP handler that serves the participant's long-poll GET
// (the handler itself is outside router scope per spec §1).
type HTTPChannelRegistry struct {
	mailboxes syncx.Map[string, chan message.Message]
}

// NewHTTPChannelRegistry constructs an empty registry.
func NewHTTPChannelRegistry() *HTTPChannelRegistry {
	return &HTTPChannelRegistry{}
}

// Mailbox returns (creating if necessary) the buffered channel backing channelID, for the
// long-poll handler to read from.
func (r *HTTPChannelRegistry) Mailbox(channelID string) chan message.Message {
	ch, _ := r.mailboxes.LoadOrStoreFunc(channelID, func() chan message.Message {
		return make(chan message.Message, 64)
	})
	return ch
}

// Close discards the mailbox for a channel that has stopped polling.
func (r *HTTPChannelRegistry) Close(channelID string) {
	if ch, ok := r.mailboxes.Delete(channelID); ok {
		close(ch)
	}
}

type httpChannelStub struct {
	registry  *HTTPChannelRegistry
	channelID string
}

// Creator returns a Creator for address.HTTPChannel addresses backed by this registry.
func (r *HTTPChannelRegistry) Creator() Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.HTTPChannel {
			return nil, errors.Newf("not an http-channel address: %s", addr)
		}
		return &httpChannelStub{registry: r, channelID: addr.ChannelID}, nil
	}
}

func (s *httpChannelStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	mailbox := s.registry.Mailbox(s.channelID)
	select {
	case mailbox <- msg:
	default:
		if onFailure != nil {
			onFailure(msg, errors.Newf("http-channel mailbox '%s' is full", s.channelID))
		}
	}
}
