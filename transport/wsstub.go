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
	"sync"

	"github.com/gorilla/websocket"
	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/syncx"
)

// wsConn wraps a *websocket.Conn with the single writer lock gorilla/websocket requires
// (concurrent writers to the same connection are not safe without external serialization).
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) writeMessage(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// WSDialer dials a WebSocket server URL, for the WSServer Creator. Production callers pass
// websocket.DefaultDialer.Dial; tests substitute a fake.
type WSDialer func(url string) (*websocket.Conn, error)

// wsServerStub transmits by dialing (or reusing the connection this stub already dialed)
// the remote WebSocket server. Connections are cached by the factory via the stub, not re-dialed per message.
type wsServerStub struct {
	dial WSDialer
	url  string

	mux  sync.Mutex
	conn *wsConn
}

// WSServerCreator returns a Creator for address.WSServer addresses that dials out using dial.
func WSServerCreator(dial WSDialer) Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.WSServer {
			return nil, errors.Newf("not a websocket-server address: %s", addr)
		}
		return &wsServerStub{dial: dial, url: addr.URL}, nil
	}
}

func (s *wsServerStub) ensureConn() (*wsConn, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	c, err := s.dial(s.url)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.conn = &wsConn{conn: c}
	return s.conn, nil
}

func (s *wsServerStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	c, err := s.ensureConn()
	if err != nil {
		if onFailure != nil {
			onFailure(msg, errors.Trace(err))
		}
		return
	}
	if err := c.writeMessage(msg.Payload); err != nil {
		s.mux.Lock()
		s.conn = nil
		s.mux.Unlock()
		if onFailure != nil {
			onFailure(msg, errors.Trace(err))
		}
	}
}

// WSClientRegistry tracks the live *websocket.Conn for each client address id that has
// connected to a WebSocket server this router owns, populated by the server-side accept
// loop (an external collaborator per spec §1's "transport implementations" exclusion).
type WSClientRegistry struct {
	conns syncx.Map[string, *wsConn]
}

// NewWSClientRegistry constructs an empty registry.
func NewWSClientRegistry() *WSClientRegistry {
	return &WSClientRegistry{}
}

// Register records the connection for a connected client address id.
func (r *WSClientRegistry) Register(clientAddressID string, conn *websocket.Conn) {
	r.conns.Store(clientAddressID, &wsConn{conn: conn})
}

// Unregister drops the connection for a disconnected client.
func (r *WSClientRegistry) Unregister(clientAddressID string) {
	r.conns.Delete(clientAddressID)
}

type wsClientStub struct {
	registry        *WSClientRegistry
	clientAddressID string
}

// Creator returns a Creator for address.WSClient addresses backed by this registry.
func (r *WSClientRegistry) Creator() Creator {
	return func(addr address.Address) (MessagingStub, error) {
		if addr.Kind != address.WSClient {
			return nil, errors.Newf("not a websocket-client address: %s", addr)
		}
		return &wsClientStub{registry: r, clientAddressID: addr.ClientAddressID}, nil
	}
}

func (s *wsClientStub) Transmit(ctx context.Context, msg message.Message, onFailure message.FailureCallback) {
	c, ok := s.registry.conns.Load(s.clientAddressID)
	if !ok {
		if onFailure != nil {
			onFailure(msg, errors.Newf("no connected websocket client '%s'", s.clientAddressID))
		}
		return
	}
	if err := c.writeMessage(msg.Payload); err != nil {
		s.registry.Unregister(s.clientAddressID)
		if onFailure != nil {
			onFailure(msg, errors.Trace(err))
		}
	}
}
