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

package parentclient

import (
	"context"
	"time"

	"github.com/microbus-io/errors"
	"github.com/nats-io/nats.go"
	"github.com/relaymesh/msgrouter/address"
	"go.yaml.in/yaml/v3"
)

// Client is the router's proxy to its parent router (spec §4.4). Every method is
// idempotent from the caller's perspective — duplicate delivery or a duplicate reply is
// tolerated — and "asynchronous" per spec §4.4 means the router issues it from its own
// worker pool rather than the caller's thread, not that the call itself never blocks:
// ResolveNextHop and the multicast-receiver methods wait for the parent's reply (bounded
// by their context), while AddNextHopAsync/RemoveNextHopAsync are pure fire-and-forget
// publishes that need no ack. Outstanding fire-and-forget notifications are retried
// across a reconnect because they ride on NATS's own reconnect-buffered Publish; nothing
// the client itself needs to track.
type Client struct {
	conn       *nats.Conn
	subjectPrefix string
	opTimeout  time.Duration
}

// New wraps an established NATS connection as a parent-router client. subjectPrefix
// scopes the NATS subject tree to one deployment (e.g. "routers.acme-prod"), allowing
// several independent router hierarchies to share a NATS cluster.
func New(conn *nats.Conn, subjectPrefix string, opTimeout time.Duration) *Client {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Client{conn: conn, subjectPrefix: subjectPrefix, opTimeout: opTimeout}
}

// Close closes the underlying NATS connection without draining it first.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) subject(op string) string {
	if c.subjectPrefix == "" {
		return "router." + op
	}
	return c.subjectPrefix + ".router." + op
}

type resolveRequest struct {
	ParticipantID string `yaml:"participantId"`
}

type resolveReply struct {
	Found   bool           `yaml:"found"`
	Address address.Record `yaml:"address,omitempty"`
}

// ResolveNextHop asks the parent router for the address of participantID. It reports
// found=false, rather than an error, when the parent genuinely does not know the
// participant; a non-nil error means the request itself failed (timeout, parent down).
func (c *Client) ResolveNextHop(ctx context.Context, participantID string) (addr address.Address, found bool, err error) {
	reqBody, err := yaml.Marshal(resolveRequest{ParticipantID: participantID})
	if err != nil {
		return address.Address{}, false, errors.Trace(err)
	}

	deadline := c.opTimeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < deadline {
			deadline = remaining
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	msg, err := c.conn.RequestWithContext(reqCtx, c.subject("resolveNextHop"), reqBody)
	if err != nil {
		return address.Address{}, false, errors.Trace(err)
	}

	var reply resolveReply
	if err := yaml.Unmarshal(msg.Data, &reply); err != nil {
		return address.Address{}, false, errors.Trace(err)
	}
	if !reply.Found {
		return address.Address{}, false, nil
	}
	return address.FromRecord(reply.Address), true, nil
}

type hopUpdate struct {
	ParticipantID     string         `yaml:"participantId"`
	Address           address.Record `yaml:"address"`
	IsGloballyVisible bool           `yaml:"isGloballyVisible"`
}

// AddNextHopAsync notifies the parent that participantID is now reachable at addr.
// It is fire-and-forget: the call returns as soon as the publish is handed to the
// NATS client library, per spec §4.4's "does not block on transport I/O" guidance.
func (c *Client) AddNextHopAsync(participantID string, addr address.Address, isGloballyVisible bool) error {
	body, err := yaml.Marshal(hopUpdate{
		ParticipantID:     participantID,
		Address:           addr.ToRecord(),
		IsGloballyVisible: isGloballyVisible,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.conn.Publish(c.subject("addNextHop"), body))
}

type hopRemoval struct {
	ParticipantID string `yaml:"participantId"`
}

// RemoveNextHopAsync notifies the parent that participantID is no longer reachable
// through this child.
func (c *Client) RemoveNextHopAsync(participantID string) error {
	body, err := yaml.Marshal(hopRemoval{ParticipantID: participantID})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.conn.Publish(c.subject("removeNextHop"), body))
}

type multicastUpdate struct {
	MulticastID             string `yaml:"multicastId"`
	SubscriberParticipantID string `yaml:"subscriberParticipantId"`
	ProviderParticipantID   string `yaml:"providerParticipantId"`
}

type multicastAck struct {
	Error string `yaml:"error,omitempty"`
}

func (c *Client) multicastRequest(ctx context.Context, op string, body []byte) error {
	deadline := c.opTimeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < deadline {
			deadline = remaining
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	msg, err := c.conn.RequestWithContext(reqCtx, c.subject(op), body)
	if err != nil {
		return errors.Trace(err)
	}
	var ack multicastAck
	if err := yaml.Unmarshal(msg.Data, &ack); err != nil {
		return errors.Trace(err)
	}
	if ack.Error != "" {
		return errors.Newf("parent router: %s", ack.Error)
	}
	return nil
}

// AddMulticastReceiverAsync delegates registration of a multicast subscriber to the
// parent router, used when the publication's provider is not reachable from this router
// directly (spec §4.1.4, child-delegates-to-parent case). It waits for the parent's ack,
// bounded by ctx, but the router always issues it from its own worker pool rather than
// the caller of addMulticastReceiver, so that caller never blocks on parent round-trip.
func (c *Client) AddMulticastReceiverAsync(ctx context.Context, multicastID, subscriberParticipantID, providerParticipantID string) error {
	body, err := yaml.Marshal(multicastUpdate{
		MulticastID:             multicastID,
		SubscriberParticipantID: subscriberParticipantID,
		ProviderParticipantID:   providerParticipantID,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return c.multicastRequest(ctx, "addMulticastReceiver", body)
}

// RemoveMulticastReceiverAsync delegates deregistration of a multicast subscriber to the
// parent router, waiting for the parent's ack bounded by ctx.
func (c *Client) RemoveMulticastReceiverAsync(ctx context.Context, multicastID, subscriberParticipantID, providerParticipantID string) error {
	body, err := yaml.Marshal(multicastUpdate{
		MulticastID:             multicastID,
		SubscriberParticipantID: subscriberParticipantID,
		ProviderParticipantID:   providerParticipantID,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return c.multicastRequest(ctx, "removeMulticastReceiver", body)
}
