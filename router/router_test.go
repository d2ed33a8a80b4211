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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/microbus-io/errors"
	"github.com/microbus-io/testarossa"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/cfg"
	"github.com/relaymesh/msgrouter/clock"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/multicast"
	"github.com/relaymesh/msgrouter/routing"
	"github.com/relaymesh/msgrouter/transport"
)

func testConfig() cfg.RouterConfig {
	c := cfg.DefaultRouterConfig()
	c.BackoffInitial = time.Millisecond
	c.BackoffMax = 5 * time.Millisecond
	c.QueueSweepInterval = 20 * time.Millisecond
	c.Workers = 2
	return c
}

// countingStub records every Transmit call and can be told to fail the next N calls.
type countingStub struct {
	mu        sync.Mutex
	delivered []message.Message
	failTimes int32
}

func (s *countingStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	if atomic.AddInt32(&s.failTimes, -1) >= 0 {
		if onFailure != nil {
			onFailure(msg, errors.New("transient failure"))
		}
		return
	}
	s.mu.Lock()
	s.delivered = append(s.delivered, msg)
	s.mu.Unlock()
}

func (s *countingStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func newTestRouter(t *testing.T, stub *countingStub) (*Router, *transport.Factory) {
	t.Helper()
	factory := transport.NewFactory(map[address.Kind]transport.Creator{
		address.InProcess: func(addr address.Address) (transport.MessagingStub, error) {
			return stub, nil
		},
	}, 100)
	table := routing.NewTable("")
	skeletons := multicast.NewSkeletonRegistry(nil)
	r := New(testConfig(), clock.Real, table, factory, skeletons)
	t.Cleanup(func() { r.Shutdown(time.Second) })
	return r, factory
}

func TestRouter_RouteToKnownDestinationDispatches(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	tt.NoError(r.AddNextHop("P1", address.InProcessAddress("svc"), false))

	err := r.Route(message.Message{ID: "m1", To: "P1", Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)

	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))
}

func TestRouter_RouteToUnknownDestinationQueuesThenDrains(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	err := r.Route(message.Message{ID: "m1", To: "P1", Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)
	tt.Equal(0, stub.count())

	tt.NoError(r.AddNextHop("P1", address.InProcessAddress("svc"), false))
	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))
}

func TestRouter_ExpiredMessageDroppedImmediately(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	var gotErr error
	err := r.Route(message.Message{ID: "m1", To: "P1", Expiry: time.Now().Add(-time.Second)}, func(msg message.Message, e error) {
		gotErr = e
	})
	tt.NoError(err)
	tt.Error(gotErr)
	tt.Equal(0, r.q.Len())
}

func TestRouter_DispatchRetriesOnTransientFailure(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{failTimes: 2}
	r, _ := newTestRouter(t, stub)
	tt.NoError(r.AddNextHop("P1", address.InProcessAddress("svc"), false))

	err := r.Route(message.Message{ID: "m1", To: "P1", Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)

	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))
}

func TestRouter_ReceivedFromGlobalUnknownDestinationDropped(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	var gotErr error
	err := r.Route(message.Message{
		ID: "m1", To: "ghost", Expiry: time.Now().Add(time.Minute), ReceivedFromGlobal: true,
	}, func(msg message.Message, e error) { gotErr = e })
	tt.NoError(err)
	tt.Error(gotErr)
	tt.Equal(0, r.q.Len())
}

func TestRouter_AddProvisionedNextHopIsResolvable(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	tt.NoError(r.AddProvisionedNextHop("P1", address.InProcessAddress("svc")))

	addr, ok := r.table.Resolve("P1")
	tt.True(ok)
	tt.Equal(address.InProcess, addr.Kind)
}

func TestRouter_ResolveNextHop(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	tt.NoError(r.AddNextHop("P1", address.InProcessAddress("svc"), false))

	addr, ok, err := r.ResolveNextHop("P1")
	tt.NoError(err)
	tt.True(ok)
	tt.Equal(address.InProcess, addr.Kind)

	_, ok, err = r.ResolveNextHop("ghost")
	tt.NoError(err)
	tt.False(ok)

	_, _, err = r.ResolveNextHop("")
	tt.Error(err)
}

func TestRouter_EmptyParticipantIDRejected(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	tt.Error(r.AddNextHop("", address.InProcessAddress("svc"), false))
	tt.Error(r.AddProvisionedNextHop("", address.InProcessAddress("svc")))
	tt.Error(r.RemoveNextHop(""))
}

func TestRouter_SetParentRouterTwiceFails(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	err := r.SetParentRouter(nil, address.Address{}, "parent")
	tt.NoError(err)
	err = r.SetParentRouter(nil, address.Address{}, "parent")
	tt.Error(err)
}

func TestRouter_MulticastLocalFanOut(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	tt.NoError(r.AddNextHop("Provider", address.InProcessAddress("provider-skel"), false))
	tt.NoError(r.AddNextHop("S1", address.InProcessAddress("sub-skel"), false))

	var onSuccessCalled, onErrorCalled bool
	r.AddMulticastReceiver("m1", "S1", "Provider", nil, func() { onSuccessCalled = true }, func(error) { onErrorCalled = true })
	tt.True(onSuccessCalled)
	tt.False(onErrorCalled)

	err := r.Route(message.Message{ID: "mm1", From: "Provider", To: "m1", Type: message.Multicast, Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)

	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))
}

func TestRouter_AddMulticastReceiverUnresolvedProvider(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)

	var gotErr error
	r.AddMulticastReceiver("m1", "S1", "ghost-provider", nil, func() {}, func(e error) { gotErr = e })
	tt.Error(gotErr)
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
