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

// Package address models the transport endpoints a participant can be reached at.
// An Address is a tagged sum of the transport kinds the router knows how to dispatch to.
// It is a plain comparable struct of strings so that it can be used directly as a map key
// and compared with ==, rather than a class hierarchy dispatched via type assertions.
package address

import (
	"github.com/microbus-io/errors"
)

// Kind identifies the transport a participant is reachable over.
type Kind string

const (
	// InProcess addresses a participant hosted in the same process, identified by a skeleton handle.
	InProcess Kind = "inprocess"
	// WSServer addresses a participant reachable as a WebSocket server this router dials out to.
	WSServer Kind = "wsserver"
	// WSClient addresses a participant that connected to this router as a WebSocket client.
	WSClient Kind = "wsclient"
	// MQTT addresses a participant reachable by publishing to an MQTT topic on a broker.
	MQTT Kind = "mqtt"
	// HTTPChannel addresses a participant reachable over an HTTP long-poll channel.
	HTTPChannel Kind = "httpchannel"
	// Browser is the distinguished browser/binder variant used by in-browser or bound-app runtimes
	// that are reached through a local binder channel rather than a network socket.
	Browser Kind = "browser"
)

// Address is a value-comparable, hashable description of a transport endpoint.
// Equality is structural: two Address values with the same Kind and fields are interchangeable.
// Address is immutable once constructed; all constructors return it by value.
type Address struct {
	Kind Kind

	// URL is the WebSocket server URL (WSServer) or the MQTT broker URL (MQTT).
	URL string
	// Topic is the MQTT topic (MQTT only).
	Topic string
	// ChannelID is the HTTP long-poll channel identifier (HTTPChannel only).
	ChannelID string
	// ClientAddressID identifies a specific connected client (WSClient, Browser).
	ClientAddressID string
	// Skeleton names the in-process receive handle to deliver to (InProcess only).
	Skeleton string
}

// InProcessAddress addresses a participant hosted in this process behind the named skeleton handle.
func InProcessAddress(skeleton string) Address {
	return Address{Kind: InProcess, Skeleton: skeleton}
}

// WSServerAddress addresses a participant reachable by dialing the given WebSocket server URL.
func WSServerAddress(url string) Address {
	return Address{Kind: WSServer, URL: url}
}

// WSClientAddress addresses a specific WebSocket client that connected to a server this router owns.
func WSClientAddress(serverURL string, clientAddressID string) Address {
	return Address{Kind: WSClient, URL: serverURL, ClientAddressID: clientAddressID}
}

// MQTTAddress addresses a participant reachable by publishing to topic on the broker at brokerURL.
func MQTTAddress(brokerURL string, topic string) Address {
	return Address{Kind: MQTT, URL: brokerURL, Topic: topic}
}

// HTTPChannelAddress addresses a participant polling the given long-poll channel.
func HTTPChannelAddress(url string, channelID string) Address {
	return Address{Kind: HTTPChannel, URL: url, ChannelID: channelID}
}

// BrowserAddress addresses a browser/binder-hosted participant reached through a local binder channel.
func BrowserAddress(clientAddressID string) Address {
	return Address{Kind: Browser, ClientAddressID: clientAddressID}
}

// IsZero indicates this is the zero-value Address, i.e. no address was ever assigned.
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsLocal indicates whether the address names a participant hosted in this process
// rather than reachable only through a network transport. Both a true in-process skeleton
// and a directly-connected WebSocket client satisfy this, per the multicast dispatch rule
// that decides whether a global republish is warranted.
func (a Address) IsLocal() bool {
	return a.Kind == InProcess || a.Kind == WSClient || a.Kind == Browser
}

// Validate checks that the fields required for the address's Kind are populated.
func (a Address) Validate() error {
	switch a.Kind {
	case InProcess:
		if a.Skeleton == "" {
			return errors.New("in-process address missing skeleton handle")
		}
	case WSServer:
		if a.URL == "" {
			return errors.New("websocket-server address missing URL")
		}
	case WSClient:
		if a.URL == "" || a.ClientAddressID == "" {
			return errors.New("websocket-client address missing URL or client address id")
		}
	case MQTT:
		if a.URL == "" || a.Topic == "" {
			return errors.New("mqtt address missing broker URL or topic")
		}
	case HTTPChannel:
		if a.URL == "" || a.ChannelID == "" {
			return errors.New("http-channel address missing URL or channel id")
		}
	case Browser:
		if a.ClientAddressID == "" {
			return errors.New("browser address missing client address id")
		}
	default:
		return errors.Newf("unknown address kind '%s'", a.Kind)
	}
	return nil
}

// String renders a compact, human-readable and round-trippable representation of the address,
// useful for logging and as a stub-cache key in log output.
func (a Address) String() string {
	switch a.Kind {
	case InProcess:
		return string(InProcess) + "://" + a.Skeleton
	case WSServer:
		return string(WSServer) + "://" + a.URL
	case WSClient:
		return string(WSClient) + "://" + a.URL + "/" + a.ClientAddressID
	case MQTT:
		return string(MQTT) + "://" + a.URL + "/" + a.Topic
	case HTTPChannel:
		return string(HTTPChannel) + "://" + a.URL + "/" + a.ChannelID
	case Browser:
		return string(Browser) + "://" + a.ClientAddressID
	default:
		return string(a.Kind) + "://?"
	}
}
