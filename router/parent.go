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
	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/parentclient"
	"github.com/relaymesh/msgrouter/routererr"
)

// SetParentRouter promotes this router to a child of parentProxy, reachable for remote
// participants at parentAddress identified by parentParticipantID. It must be called
// exactly once, before routing begins; a second call is a precondition violation
// reported as routererr.Invalid (spec §4.1, §4.5).
func (r *Router) SetParentRouter(parentProxy *parentclient.Client, parentAddress address.Address, parentParticipantID string) error {
	if !r.hasParent.CompareAndSwap(false, true) {
		return errors.Trace(routererr.Invalid)
	}

	r.parentMu.Lock()
	r.parent = parentProxy
	r.parentAddress = parentAddress
	r.parentID = parentParticipantID
	r.parentMu.Unlock()
	return nil
}

// HasParent reports whether this router has been promoted to child mode.
func (r *Router) HasParent() bool {
	return r.hasParent.Load()
}
