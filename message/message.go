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

// Package message defines the wire-agnostic Message the router dispatches, queues and
// fans out. It carries no transport framing; that is the concern of the stubs and
// skeletons in package transport.
package message

import (
	"time"

	"github.com/microbus-io/errors"
)

// Type classifies what a Message is for, per the data model (spec §3).
type Type string

const (
	Request             Type = "request"
	Reply               Type = "reply"
	OneWay              Type = "one-way"
	SubscriptionRequest Type = "subscription-request"
	SubscriptionReply   Type = "subscription-reply"
	SubscriptionStop    Type = "subscription-stop"
	Publication         Type = "publication"
	Multicast           Type = "multicast"
)

// Message is immutable after it is handed to the router's route call.
type Message struct {
	ID   string
	From string
	To   string
	Type Type

	// Expiry is an absolute wall-clock deadline; the message must not be delivered after it.
	Expiry time.Time

	// ReceivedFromGlobal marks a message that arrived over the global transport, used by
	// multicast dispatch to avoid re-publishing globally what was already received globally.
	ReceivedFromGlobal bool

	Payload []byte
	Headers map[string]string
}

// FailureCallback reports a delivery failure for a single message. It is invoked at most
// once per route call, and only when delivery is abandoned (TTL exhausted, dropped, queue full).
type FailureCallback func(msg Message, err error)

// Validate rejects malformed messages before they are enqueued or dispatched.
func (m Message) Validate() error {
	if m.ID == "" {
		return errors.New("message id is required")
	}
	if m.To == "" {
		return errors.New("message destination is required")
	}
	if m.Expiry.IsZero() {
		return errors.New("message expiry is required")
	}
	return nil
}

// Expired reports whether the message's TTL has elapsed as of now.
func (m Message) Expired(now time.Time) bool {
	return !now.Before(m.Expiry)
}

// IsMulticast reports whether the message addresses a multicast id rather than a participant.
func (m Message) IsMulticast() bool {
	return m.Type == Multicast
}
