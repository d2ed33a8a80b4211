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

package syncx

import (
	"sync"
	"testing"

	"github.com/microbus-io/testarossa"
)

func TestSyncx_LoadStoreDelete(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var m Map[string, int]
	_, ok := m.Load("a")
	tt.False(ok)

	m.Store("a", 1)
	v, ok := m.Load("a")
	tt.True(ok)
	tt.Equal(1, v)

	v, deleted := m.Delete("a")
	tt.True(deleted)
	tt.Equal(1, v)
	_, ok = m.Load("a")
	tt.False(ok)
}

func TestSyncx_LoadOrStoreFunc(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var m Map[string, int]
	var calls int
	v, loaded := m.LoadOrStoreFunc("a", func() int { calls++; return 1 })
	tt.False(loaded)
	tt.Equal(1, v)

	v, loaded = m.LoadOrStoreFunc("a", func() int { calls++; return 2 })
	tt.True(loaded)
	tt.Equal(1, v)
	tt.Equal(1, calls)
}

// TestSyncx_CreationLockPattern mirrors transport.Factory's use of LoadOrStoreFunc to
// hand out exactly one *sync.Mutex per address shared by every concurrent caller.
func TestSyncx_CreationLockPattern(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var locks Map[string, *sync.Mutex]
	var wg sync.WaitGroup
	seen := make(chan *sync.Mutex, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, _ := locks.LoadOrStoreFunc("addr-1", func() *sync.Mutex { return &sync.Mutex{} })
			seen <- lock
		}()
	}
	wg.Wait()
	close(seen)

	first := <-seen
	for lock := range seen {
		tt.True(lock == first)
	}
}

func TestSyncx_Concurrent(t *testing.T) {
	t.Parallel()
	tt := testarossa.For(t)

	var m Map[int, int]
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Store(i, i*2)
		}(i)
	}
	wg.Wait()
	n := 0
	for i := range 100 {
		if _, ok := m.Load(i); ok {
			n++
		}
	}
	tt.Equal(100, n)
}
