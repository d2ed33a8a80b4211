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

package router

import (
	"context"
	"time"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/multicast"
	"github.com/relaymesh/msgrouter/routererr"
	"go.opentelemetry.io/otel/attribute"
)

// routeMulticast implements spec §4.1.3: dispatch a copy to every local subscriber of
// msg.To, and, if the provider (msg.From) is hosted locally and the message did not
// itself arrive over the global transport, republish one copy to the global multicast
// address so that remote subscribers receive it too. The whole fan-out runs under its own
// child span, with one further child span per subscriber dispatch.
func (r *Router) routeMulticast(ctx context.Context, msg message.Message) {
	ctx, span := r.startSpan(ctx, "router.multicast-fanout", attribute.String("multicast.id", msg.To))
	defer span.End()

	subs := r.directory.Subscribers(msg.To)
	span.SetAttributes(attribute.Int("multicast.subscriber_count", len(subs)))
	for _, sub := range subs {
		addr, ok := r.table.Resolve(sub.SubscriberParticipantID)
		if !ok {
			continue
		}
		msgCopy := msg
		r.submit(func() {
			r.dispatch(ctx, addr, msgCopy, nil, 0)
		})
	}

	if msg.ReceivedFromGlobal || r.calc == nil {
		return
	}
	providerAddr, ok := r.table.Resolve(msg.From)
	if !ok || !providerAddr.IsLocal() {
		return
	}
	globalAddr, err := r.calc.GlobalAddress(msg.From, msg.To)
	if err != nil {
		span.SetAttributes(attribute.String("router.outcome", "global-address-error"))
		if r.logger != nil {
			r.logger.LogWarn(context.Background(), "computing global multicast address", "multicast", msg.To, "error", err)
		}
		return
	}
	msgCopy := msg
	r.submit(func() {
		r.dispatch(ctx, globalAddr, msgCopy, nil, 0)
	})
}

// AddMulticastReceiver registers subscriberParticipantID as a local receiver of
// multicastID published by providerParticipantID, per the resolution table in spec
// §4.1.4. onSuccess/onError are invoked exactly once, asynchronously with respect to
// the caller whenever a parent or skeleton round-trip is required. expiryHint, if
// non-nil, is stored on the receiver record and returned by queries but never
// interpreted by the router itself (QoS/arbitration remains out of scope).
func (r *Router) AddMulticastReceiver(multicastID, subscriberParticipantID, providerParticipantID string, expiryHint *time.Duration, onSuccess func(), onError func(error)) {
	providerAddr, ok := r.table.Resolve(providerParticipantID)
	if !ok {
		onError(errors.Trace(routererr.Unresolved))
		return
	}

	isFirst := r.directory.Add(multicast.Receiver{
		MulticastID:             multicastID,
		SubscriberParticipantID: subscriberParticipantID,
		ProviderParticipantID:   providerParticipantID,
		ExpiryHint:              expiryHint,
	})

	if providerAddr.Kind == address.InProcess {
		onSuccess()
		return
	}
	if !isFirst {
		// A native subscription for this multicastId was already established by
		// the first receiver; this one just needed the local directory entry.
		onSuccess()
		return
	}

	r.submit(func() {
		r.establishNativeMulticastSubscription(multicastID, subscriberParticipantID, providerParticipantID, providerAddr.Kind, onSuccess, onError)
	})
}

func (r *Router) establishNativeMulticastSubscription(multicastID, subscriberParticipantID, providerParticipantID string, kind address.Kind, onSuccess func(), onError func(error)) {
	if r.hasParent.Load() {
		r.parentMu.RLock()
		p := r.parent
		r.parentMu.RUnlock()
		if p == nil {
			onError(errors.Trace(routererr.ParentDown))
			return
		}
		ctx, cancel := context.WithTimeout(r.ctx, r.cfg.MulticastOpTimeout)
		defer cancel()
		if err := p.AddMulticastReceiverAsync(ctx, multicastID, subscriberParticipantID, providerParticipantID); err != nil {
			onError(errors.Trace(err))
			return
		}
		onSuccess()
		return
	}

	skel, err := r.skeletons.Skeleton(kind)
	if err != nil {
		onError(errors.Trace(err))
		return
	}
	if err := skel.RegisterMulticastSubscription(multicastID); err != nil {
		onError(errors.Trace(err))
		return
	}
	onSuccess()
}

// RemoveMulticastReceiver is the inverse of AddMulticastReceiver. Removing the last
// receiver for multicastID additionally tears down the native subscription (parent
// delegation or skeleton unregistration), mirroring spec §4.1.4's note on removal.
func (r *Router) RemoveMulticastReceiver(multicastID, subscriberParticipantID, providerParticipantID string, onSuccess func(), onError func(error)) {
	providerAddr, ok := r.table.Resolve(providerParticipantID)
	if !ok {
		onError(errors.Trace(routererr.Unresolved))
		return
	}

	wasLast := r.directory.Remove(multicastID, subscriberParticipantID)

	if providerAddr.Kind == address.InProcess || !wasLast {
		onSuccess()
		return
	}

	r.submit(func() {
		r.teardownNativeMulticastSubscription(multicastID, subscriberParticipantID, providerParticipantID, providerAddr.Kind, onSuccess, onError)
	})
}

func (r *Router) teardownNativeMulticastSubscription(multicastID, subscriberParticipantID, providerParticipantID string, kind address.Kind, onSuccess func(), onError func(error)) {
	if r.hasParent.Load() {
		r.parentMu.RLock()
		p := r.parent
		r.parentMu.RUnlock()
		if p == nil {
			onError(errors.Trace(routererr.ParentDown))
			return
		}
		ctx, cancel := context.WithTimeout(r.ctx, r.cfg.MulticastOpTimeout)
		defer cancel()
		if err := p.RemoveMulticastReceiverAsync(ctx, multicastID, subscriberParticipantID, providerParticipantID); err != nil {
			onError(errors.Trace(err))
			return
		}
		onSuccess()
		return
	}

	skel, err := r.skeletons.Skeleton(kind)
	if err != nil {
		onError(errors.Trace(err))
		return
	}
	if err := skel.UnregisterMulticastSubscription(multicastID); err != nil {
		onError(errors.Trace(err))
		return
	}
	onSuccess()
}
