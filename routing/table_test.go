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

package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/microbus-io/testarossa"
	"github.com/relaymesh/msgrouter/address"
)

func TestRouting_AddNextHopThenResolve(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	_, ok := tbl.Resolve("P1")
	tt.False(ok)

	err := tbl.AddNextHop("P1", address.MQTTAddress("mqtt://b", "t1"), false)
	tt.NoError(err)

	a, ok := tbl.Resolve("P1")
	tt.True(ok)
	tt.Equal(address.MQTTAddress("mqtt://b", "t1"), a)
}

func TestRouting_AddProvisionedNextHop_ReplaceSemantics(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	tt.NoError(tbl.AddProvisionedNextHop("P1", address.MQTTAddress("mqtt://b", "t1")))
	e, ok := tbl.Lookup("P1")
	tt.True(ok)
	tt.True(e.IsSticky)
	tt.Equal("t1", e.Address.Topic)

	// Second provisioned call replaces the first outright, last write wins.
	tt.NoError(tbl.AddProvisionedNextHop("P1", address.MQTTAddress("mqtt://b", "t2")))
	e, ok = tbl.Lookup("P1")
	tt.True(ok)
	tt.Equal("t2", e.Address.Topic)
	tt.Equal(1, tbl.Len())
}

func TestRouting_AddNextHopPreservesStickyFlag(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	tt.NoError(tbl.AddProvisionedNextHop("P1", address.MQTTAddress("mqtt://b", "t1")))
	tt.NoError(tbl.AddNextHop("P1", address.MQTTAddress("mqtt://b", "t2"), true))

	e, ok := tbl.Lookup("P1")
	tt.True(ok)
	tt.True(e.IsSticky)
	tt.True(e.IsGloballyVisible)
	tt.Equal("t2", e.Address.Topic)
}

func TestRouting_AddThenRemoveLeavesTableUnchanged(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	before := tbl.Len()
	tt.NoError(tbl.AddNextHop("P1", address.MQTTAddress("mqtt://b", "t1"), false))
	_, ok, err := tbl.RemoveNextHop("P1")
	tt.True(ok)
	tt.NoError(err)
	tt.Equal(before, tbl.Len())
}

func TestRouting_RemoveUnknownParticipant(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	_, ok, err := tbl.RemoveNextHop("ghost")
	tt.False(ok)
	tt.NoError(err)
}

func TestRouting_AddNextHopRejectsInvalidAddress(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	tbl := NewTable("")
	err := tbl.AddNextHop("P1", address.Address{Kind: address.MQTT}, false)
	tt.Error(err)
}

func TestRouting_PersistenceRoundTrip(t *testing.T) {
	tt := testarossa.For(t)

	path := filepath.Join(t.TempDir(), "rt.persist")
	tbl := NewTable(path)
	tt.NoError(tbl.AddProvisionedNextHop("P3", address.MQTTAddress("mqtt://b", "t3")))
	// A learned (non-sticky) entry must not be persisted.
	tt.NoError(tbl.AddNextHop("P4", address.MQTTAddress("mqtt://b", "t4"), false))

	tbl2 := NewTable(path)
	tt.NoError(tbl2.LoadFromFile())

	a, ok := tbl2.Resolve("P3")
	tt.True(ok)
	tt.Equal(address.MQTTAddress("mqtt://b", "t3"), a)

	_, ok = tbl2.Resolve("P4")
	tt.False(ok)

	e, _ := tbl2.Lookup("P3")
	tt.True(e.IsSticky)
}

func TestRouting_LoadFromMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	path := filepath.Join(t.TempDir(), "does-not-exist.persist")
	tbl := NewTable(path)
	tt.NoError(tbl.LoadFromFile())
	tt.Equal(0, tbl.Len())
}

func TestRouting_LoadSkipsUnknownAddressKind(t *testing.T) {
	tt := testarossa.For(t)

	path := filepath.Join(t.TempDir(), "rt.persist")
	data := []byte("entries:\n" +
		"  - participantId: P1\n" +
		"    address:\n" +
		"      kind: futuristic-transport\n" +
		"    isGloballyVisible: false\n" +
		"  - participantId: P2\n" +
		"    address:\n" +
		"      kind: mqtt\n" +
		"      url: mqtt://b\n" +
		"      topic: t2\n" +
		"    isGloballyVisible: false\n")
	tt.NoError(os.WriteFile(path, data, 0644))

	tbl := NewTable(path)
	tt.NoError(tbl.LoadFromFile())
	_, ok := tbl.Resolve("P1")
	tt.False(ok)
	_, ok = tbl.Resolve("P2")
	tt.True(ok)
}
