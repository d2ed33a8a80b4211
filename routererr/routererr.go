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

// Package routererr holds the router's error taxonomy (spec §7), shared by every
// component that reports failures through a callback rather than a return value.
package routererr

import (
	"github.com/microbus-io/errors"
)

// Sentinel errors identifying the taxonomy kinds. Wrap with errors.Newc/errors.Trace
// to attach context while preserving errors.Is matching against these.
var (
	// Unresolved: destination participant unknown and no parent available (multicast ops only).
	Unresolved = errors.New("unresolved provider")
	// NoTransport: required transport skeleton or stub factory creator missing.
	NoTransport = errors.New("no transport for address kind")
	// Expired: message TTL reached before delivery.
	Expired = errors.New("message expired")
	// QueueFull: queue overflow; oldest item evicted.
	QueueFull = errors.New("queue full")
	// ParentDown: parent proxy unreachable; caller should retry.
	ParentDown = errors.New("parent router unreachable")
	// Invalid: malformed address, missing message fields, or a precondition violation
	// such as a second setParentRouter call.
	Invalid = errors.New("invalid")
	// Timeout: Router.Shutdown did not finish draining within its timeout. Multicast
	// receiver operations do not report it: a parent round-trip that exceeds its timeout
	// reports the parent client's own error, and skeleton registration has no time bound.
	Timeout = errors.New("timeout")
)
