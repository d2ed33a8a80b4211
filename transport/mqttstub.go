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
	"sync"

	"github.com/gonzalop/mq"
	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
)

// MQTTDialer connects to the broker at server, for the MQTT Creator. Production callers
// pass mq.DialContext; tests substitute a fake broker client.
type MQTTDialer func(ctx context.Context, server string) (*mq.Client, error)

// mqttStub transmits by publishing to the address's topic on a lazily-dialed client
// connection to its broker. Each stub (one per broker and topic) dials and keeps its own
// *mq.Client, reused for every message sent through that stub.
type mqttStub struct {
	dial   MQTTDialer
	broker string
	topic  string

	mux    sync.Mutex
	client *mq.Client
}

// MQTTCreator returns a Creator for address.MQTT addresses that dials out using dial.
func MQTTCreator(dial MQTTDialer) Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.MQTT {
			return nil, errors.Newf("not an mqtt address: %s", addr)
		}
		return &mqttStub{dial: dial, broker: addr.URL, topic: addr.Topic}, nil
	}
}

func (s *mqttStub) ensureClient(ctx context.Context) (*mq.Client, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.client != nil && s.client.IsConnected() {
		return s.client, nil
	}
	c, err := s.dial(ctx, s.broker)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.client = c
	return c, nil
}

func (s *mqttStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	c, err := s.ensureClient(ctx)
	if err != nil {
		if onFailure != nil {
			onFailure(msg, errors.Trace(err))
		}
		return
	}
	token := c.Publish(s.topic, msg.Payload, mq.WithQoS(mq.AtLeastOnce))
	if err := token.Wait(ctx); err != nil {
		s.mux.Lock()
		s.client = nil
		s.mux.Unlock()
		if onFailure != nil {
			onFailure(msg, errors.Trace(err))
		}
	}
}
