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
	"github.com/relaymesh/msgrouter/address"
)

// MQTTAddressCalculator derives the global MQTT topic a provider's multicast publishes
// to from the provider's participant id and the multicast name, for deployments where
// the global transport is a shared MQTT broker (spec §2 item 5).
type MQTTAddressCalculator struct {
	BrokerURL string
}

// GlobalAddress returns the MQTT address "{BrokerURL}" / "mcast/{providerParticipantID}/{multicastID}".
func (c MQTTAddressCalculator) GlobalAddress(providerParticipantID, multicastID string) (address.Address, error) {
	topic := "mcast/" + providerParticipantID + "/" + multicastID
	return address.MQTTAddress(c.BrokerURL, topic), nil
}

// ParentWSAddressCalculator republishes a locally-hosted provider's multicast to the
// parent router over the single WebSocket-server address this child router was
// configured with, for hierarchical deployments where the global transport is the
// parent link itself rather than a shared broker.
type ParentWSAddressCalculator struct {
	ParentAddress address.Address
}

// GlobalAddress always returns the configured parent address; multicastID and
// providerParticipantID ride in the message itself rather than in the address,
// since every multicast bound for the parent uses the same WebSocket link.
func (c ParentWSAddressCalculator) GlobalAddress(providerParticipantID, multicastID string) (address.Address, error) {
	return c.ParentAddress, nil
}
