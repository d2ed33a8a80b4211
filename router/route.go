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
	"github.com/relaymesh/msgrouter/routererr"
	"go.opentelemetry.io/otel/attribute"
)

// Route schedules delivery of msg (spec §4.1's `route(message)` operation). onFailure, if
// non-nil, is invoked at most once if msg is ultimately dropped: on arrival already
// expired, on loop-prevention drop, on dispatch TTL exhaustion, or on queue overflow.
func (r *Router) Route(msg message.Message, onFailure message.FailureCallback) error {
	if err := msg.Validate(); err != nil {
		return errors.Trace(err)
	}

	ctx, span := r.startSpan(context.Background(), "router.route",
		attribute.String("message.id", msg.ID),
		attribute.String("message.to", msg.To),
		attribute.String("message.type", string(msg.Type)),
	)
	defer span.End()

	now := r.clk.Now()
	if msg.Expired(now) {
		span.SetAttributes(attribute.String("router.outcome", "expired"))
		r.drop(msg, routererr.Expired, onFailure)
		return nil
	}

	if msg.IsMulticast() {
		r.routeMulticast(ctx, msg)
		return nil
	}

	addr, ok := r.table.Resolve(msg.To)
	if !ok {
		if msg.ReceivedFromGlobal {
			// Loop prevention (spec §4.1): a message that arrived over the global
			// transport and is not addressed to a participant we know locally did
			// not originate here and must not be re-queued or re-published.
			span.SetAttributes(attribute.String("router.outcome", "loop-drop"))
			r.drop(msg, errors.Trace(routererr.Invalid), onFailure)
			return nil
		}
		span.SetAttributes(attribute.String("router.outcome", "queued"))
		r.enqueueAndMaybeResolve(msg, onFailure)
		return nil
	}

	span.SetAttributes(attribute.String("router.outcome", "dispatched"))
	r.submit(func() {
		r.dispatch(ctx, addr, msg, onFailure, 0)
	})
	return nil
}

func (r *Router) drop(msg message.Message, err error, onFailure message.FailureCallback) {
	r.metrics.MessageDropped(err)
	if onFailure != nil {
		onFailure(msg, err)
	}
}

// enqueueAndMaybeResolve holds msg under its destination key until a hop is learned, and,
// for a child router, concurrently asks the parent to resolve it (spec §4.1's
// "concurrently issue a resolveNextHop(to) request to the parent").
func (r *Router) enqueueAndMaybeResolve(msg message.Message, onFailure message.FailureCallback) {
	r.q.Enqueue(msg.To, msg, onFailure)

	if !r.hasParent.Load() {
		return
	}
	to := msg.To
	r.submit(func() {
		r.resolveViaParent(to)
	})
}

func (r *Router) resolveViaParent(participantID string) {
	r.parentMu.RLock()
	p := r.parent
	r.parentMu.RUnlock()
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.MulticastOpTimeout)
	defer cancel()

	addr, found, err := p.ResolveNextHop(ctx, participantID)
	if err != nil {
		if r.logger != nil {
			r.logger.LogWarn(context.Background(), "resolveNextHop failed", "participant", participantID, "error", err)
		}
		return
	}
	if !found {
		return
	}
	_ = r.AddNextHop(participantID, addr, false)
}

// dispatch creates (or reuses) the stub for addr and transmits msg, scheduling a
// backoff-delayed retry on failure while the message's TTL allows (spec §4.1.1). A fresh
// child span covers each attempt, so a retried message shows up as several sibling spans
// under its route (or multicast fan-out) span rather than one span stretched across retries.
func (r *Router) dispatch(ctx context.Context, addr address.Address, msg message.Message, onFailure message.FailureCallback, prevDelay time.Duration) {
	_, span := r.startSpan(ctx, "router.dispatch", attribute.String("address.kind", string(addr.Kind)))

	stub, err := r.factory.Create(addr)
	if err != nil {
		endSpan(span, err)
		r.metrics.DispatchFailed(addr)
		r.drop(msg, errors.Trace(err), onFailure)
		return
	}

	stub.Transmit(r.ctx, msg, func(failedMsg message.Message, transmitErr error) {
		r.handleDispatchFailure(ctx, addr, failedMsg, onFailure, prevDelay, transmitErr)
	})
	r.metrics.DispatchSucceeded(addr)
	endSpan(span, nil)
}

func (r *Router) handleDispatchFailure(ctx context.Context, addr address.Address, msg message.Message, onFailure message.FailureCallback, prevDelay time.Duration, cause error) {
	r.metrics.DispatchFailed(addr)
	if r.closed.Load() {
		return
	}

	if r.logger != nil {
		r.logger.LogWarn(context.Background(), "dispatch failed, retrying", "address", addr.String(), "error", cause)
	}

	delay := r.nextBackoff(prevDelay)
	now := r.clk.Now()
	if backoffExceedsDeadline(now, delay, msg.Expiry) {
		r.drop(msg, errors.Trace(routererr.Expired), onFailure)
		return
	}

	time.AfterFunc(delay, func() {
		if r.closed.Load() {
			return
		}
		r.submit(func() {
			r.dispatch(ctx, addr, msg, onFailure, delay)
		})
	})
}
