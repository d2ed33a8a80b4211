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

package address

// Record is the flat, YAML-serializable projection of an Address used by the routing
// table's persistence file. Keeping it separate from Address lets the wire format evolve
// (e.g. new kind-specific fields) without disturbing Address's comparability.
type Record struct {
	Kind            string `yaml:"kind"`
	URL             string `yaml:"url,omitempty"`
	Topic           string `yaml:"topic,omitempty"`
	ChannelID       string `yaml:"channelId,omitempty"`
	ClientAddressID string `yaml:"clientAddressId,omitempty"`
	Skeleton        string `yaml:"skeleton,omitempty"`
}

// ToRecord converts the address to its persistable form.
func (a Address) ToRecord() Record {
	return Record{
		Kind:            string(a.Kind),
		URL:             a.URL,
		Topic:           a.Topic,
		ChannelID:       a.ChannelID,
		ClientAddressID: a.ClientAddressID,
		Skeleton:        a.Skeleton,
	}
}

// FromRecord reconstructs an Address from its persisted form.
// An unrecognized Kind is forward-compatibility: it decodes but fails Validate,
// so callers (the routing table loader) can skip it with a warning rather than aborting the load.
func FromRecord(r Record) Address {
	return Address{
		Kind:            Kind(r.Kind),
		URL:             r.URL,
		Topic:           r.Topic,
		ChannelID:       r.ChannelID,
		ClientAddressID: r.ClientAddressID,
		Skeleton:        r.Skeleton,
	}
}

// KnownKind indicates whether k is a Kind this build of the router understands.
func KnownKind(k string) bool {
	switch Kind(k) {
	case InProcess, WSServer, WSClient, MQTT, HTTPChannel, Browser:
		return true
	default:
		return false
	}
}
