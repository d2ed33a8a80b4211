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

	"github.com/gonzalop/mq"
	"github.com/microbus-io/errors"
)

// MQTTSkeleton is the MQTT-side MulticastSubscriber: registering a multicast issues a
// native MQTT SUBSCRIBE to the multicast's topic on the shared broker client.
type MQTTSkeleton struct {
	client  *mq.Client
	handler mq.MessageHandler
}

// NewMQTTSkeleton builds a skeleton over an already-connected broker client. handler
// receives every publication delivered for a registered multicast topic.
func NewMQTTSkeleton(client *mq.Client, handler mq.MessageHandler) *MQTTSkeleton {
	return &MQTTSkeleton{client: client, handler: handler}
}

func (s *MQTTSkeleton) RegisterMulticastSubscription(multicastID string) error {
	token := s.client.Subscribe(multicastID, mq.AtLeastOnce, s.handler)
	if err := token.Wait(context.Background()); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *MQTTSkeleton) UnregisterMulticastSubscription(multicastID string) error {
	token := s.client.Unsubscribe(multicastID)
	if err := token.Wait(context.Background()); err != nil {
		return errors.Trace(err)
	}
	return nil
}
