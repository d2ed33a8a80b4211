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
	"sync/atomic"
	"testing"

	"github.com/microbus-io/testarossa"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
)

type fakeStub struct{ transmits int32 }

func (f *fakeStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	atomic.AddInt32(&f.transmits, 1)
}

func TestFactory_CreateCachesPerAddress(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var creations int32
	creator := func(addr address.Address) (MessagingStub, error) {
		atomic.AddInt32(&creations, 1)
		return &fakeStub{}, nil
	}
	f := NewFactory(map[address.Kind]Creator{address.MQTT: creator}, 100)

	addr := address.MQTTAddress("mqtt://b", "t1")
	s1, err := f.Create(addr)
	tt.NoError(err)
	s2, err := f.Create(addr)
	tt.NoError(err)
	tt.Equal(int32(1), creations)
	tt.True(s1 == s2)
}

func TestFactory_RemoveEvictsAndRecreates(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var creations int32
	creator := func(addr address.Address) (MessagingStub, error) {
		atomic.AddInt32(&creations, 1)
		return &fakeStub{}, nil
	}
	f := NewFactory(map[address.Kind]Creator{address.MQTT: creator}, 100)
	addr := address.MQTTAddress("mqtt://b", "t1")
	_, err := f.Create(addr)
	tt.NoError(err)
	f.Remove(addr)
	_, err = f.Create(addr)
	tt.NoError(err)
	tt.Equal(int32(2), creations)
}

func TestFactory_CreateUnknownKindReturnsNoTransport(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	f := NewFactory(map[address.Kind]Creator{}, 100)
	_, err := f.Create(address.MQTTAddress("mqtt://b", "t1"))
	tt.Error(err)
}

func TestInProcess_TransmitDeliversToRegisteredDispatcher(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	reg := NewInProcessRegistry()
	delivered := make(chan message.Message, 1)
	reg.Register("svc1", func(ctx context.Context, msg message.Message) error {
		delivered <- msg
		return nil
	})

	stub, err := reg.Creator()(address.InProcessAddress("svc1"))
	tt.NoError(err)
	stub.Transmit(context.Background(), message.Message{ID: "m1"}, nil)

	select {
	case msg := <-delivered:
		tt.Equal("m1", msg.ID)
	default:
		tt.True(false)
	}
}

func TestInProcess_TransmitMissingDispatcherReportsFailure(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	reg := NewInProcessRegistry()
	stub, err := reg.Creator()(address.InProcessAddress("ghost"))
	tt.NoError(err)

	var gotErr error
	stub.Transmit(context.Background(), message.Message{ID: "m1"}, func(msg message.Message, err error) {
		gotErr = err
	})
	tt.Error(gotErr)
}

func TestHTTPChannel_TransmitFillsMailbox(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	reg := NewHTTPChannelRegistry()
	stub, err := reg.Creator()(address.HTTPChannelAddress("https://h", "chan1"))
	tt.NoError(err)
	stub.Transmit(context.Background(), message.Message{ID: "m1"}, nil)

	mailbox := reg.Mailbox("chan1")
	msg := <-mailbox
	tt.Equal("m1", msg.ID)
}
