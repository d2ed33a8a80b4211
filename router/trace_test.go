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
	"testing"
	"time"

	"github.com/microbus-io/testarossa"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRouter_RouteAndDispatchEmitSpans(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer provider.Shutdown(t.Context())

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	r.tracer = provider.Tracer("")
	tt.NoError(r.AddNextHop("P1", address.InProcessAddress("svc"), false))

	err := r.Route(message.Message{ID: "m1", To: "P1", Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)
	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))

	tt.True(waitFor(func() bool { return len(recorder.Ended()) >= 2 }, time.Second))

	var routeSpanID, dispatchParentID string
	var sawRoute, sawDispatch bool
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "router.route":
			sawRoute = true
			routeSpanID = span.SpanContext().SpanID().String()
		case "router.dispatch":
			sawDispatch = true
			dispatchParentID = span.Parent().SpanID().String()
		}
	}
	tt.True(sawRoute)
	tt.True(sawDispatch)
	tt.Equal(routeSpanID, dispatchParentID)
}

func TestRouter_MulticastFanOutEmitsSpan(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer provider.Shutdown(t.Context())

	stub := &countingStub{}
	r, _ := newTestRouter(t, stub)
	r.tracer = provider.Tracer("")
	tt.NoError(r.AddNextHop("Provider", address.InProcessAddress("provider-skel"), false))
	tt.NoError(r.AddNextHop("S1", address.InProcessAddress("sub-skel"), false))
	r.AddMulticastReceiver("m1", "S1", "Provider", nil, func() {}, func(error) {})

	err := r.Route(message.Message{ID: "mm1", From: "Provider", To: "m1", Type: message.Multicast, Expiry: time.Now().Add(time.Minute)}, nil)
	tt.NoError(err)
	tt.True(waitFor(func() bool { return stub.count() == 1 }, time.Second))

	tt.True(waitFor(func() bool { return len(recorder.Ended()) >= 2 }, time.Second))

	var sawFanOut bool
	for _, span := range recorder.Ended() {
		if span.Name() == "router.multicast-fanout" {
			sawFanOut = true
		}
	}
	tt.True(sawFanOut)
}
