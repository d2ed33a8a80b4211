/*
Copyright 2023 Microbus LLC and various contributors

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

// Package clock provides an injectable notion of "now" so that TTL expiry,
// back-off scheduling and the queue sweeper can be tested without sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so tests can pin or fast-forward it.
type Clock interface {
	Now() time.Time
}

// realClock delegates to the standard library.
type realClock struct{}

// Real is the production Clock, a thin wrapper around time.Now.
var Real Clock = realClock{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Mock is a Clock whose value is fixed until explicitly advanced, for deterministic tests
// of TTL expiry and back-off scheduling.
type Mock struct {
	mux sync.Mutex
	now time.Time
}

// NewMockAt creates a Mock clock frozen at the given time.
func NewMockAt(t time.Time) *Mock {
	return &Mock{now: t}
}

// NewMockAtDate creates a Mock clock frozen at the given calendar date and time.
func NewMockAtDate(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) *Mock {
	return NewMockAt(time.Date(year, month, day, hour, min, sec, nsec, loc))
}

// NewMockAtNow creates a Mock clock frozen at the current wall-clock time.
func NewMockAtNow() *Mock {
	return NewMockAt(time.Now())
}

// Now returns the clock's current frozen (or advanced) time.
func (m *Mock) Now() time.Time {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.now
}

// Set moves the clock to an arbitrary time.
func (m *Mock) Set(t time.Time) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = t
}

// Advance moves the clock forward by d, which may be negative to rewind it.
func (m *Mock) Advance(d time.Duration) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = m.now.Add(d)
}
