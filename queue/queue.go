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

// Package queue holds messages addressed to a participant whose next hop is not yet
// known, until the hop is learned, the message expires, or the queue overflows (spec §4.3).
package queue

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/relaymesh/msgrouter/clock"
	"github.com/relaymesh/msgrouter/message"
	"github.com/relaymesh/msgrouter/routererr"
)

const bucketCount = 16

// Item is one message held in the queue pending resolution of its destination.
type Item struct {
	Message    message.Message
	InsertedAt time.Time
	OnFailure  message.FailureCallback
}

// bucket holds the per-key lists of queued items for a slice of the key space, coarsening
// the lock granularity so that unrelated participants do not contend (spec §5: "16 buckets").
type bucket struct {
	mux   sync.Mutex
	items map[string][]Item
}

// Queue is the router's participantId → []Item message queue.
type Queue struct {
	buckets  [bucketCount]*bucket
	seed     maphash.Seed
	maxLen   int
	clk      clock.Clock
	onDropped func(item Item, err error)
}

// New constructs a queue bounded at maxLen total items, using clk to evaluate expiry.
// onDropped, if non-nil, is invoked whenever an item is discarded without ever being
// handed back to a caller for dispatch (overflow eviction, or TTL expiry found by Sweep or Drain).
func New(maxLen int, clk clock.Clock, onDropped func(item Item, err error)) *Queue {
	q := &Queue{
		maxLen:   maxLen,
		clk:      clk,
		seed:     maphash.MakeSeed(),
		onDropped: onDropped,
	}
	for i := range q.buckets {
		q.buckets[i] = &bucket{items: make(map[string][]Item)}
	}
	return q
}

func (q *Queue) bucketFor(key string) *bucket {
	var h maphash.Hash
	h.SetSeed(q.seed)
	h.WriteString(key)
	return q.buckets[h.Sum64()%uint64(bucketCount)]
}

// totalLen sums item counts across all buckets. Used only to enforce maxLen, so an
// approximate, not-atomic-across-buckets count is acceptable; spec bounds "queue length"
// as a soft cap that triggers oldest-eviction on overflow, not a hard transactional limit.
func (q *Queue) totalLen() int {
	n := 0
	for _, b := range q.buckets {
		b.mux.Lock()
		for _, items := range b.items {
			n += len(items)
		}
		b.mux.Unlock()
	}
	return n
}

// Enqueue appends msg to the list for participantId. If the queue is at capacity, the
// oldest non-expired item across the whole queue is evicted and its failure callback is
// invoked with routererr.QueueFull before the new item is appended.
func (q *Queue) Enqueue(participantID string, msg message.Message, onFailure message.FailureCallback) {
	item := Item{
		Message:    cloneMessage(msg),
		InsertedAt: q.clk.Now(),
		OnFailure:  onFailure,
	}
	if q.totalLen() >= q.maxLen {
		q.evictOldest()
	}
	b := q.bucketFor(participantID)
	b.mux.Lock()
	b.items[participantID] = append(b.items[participantID], item)
	b.mux.Unlock()
}

// evictOldest discards the single oldest non-expired item across every bucket, reporting
// QueueFull. Expired items are left for Sweep or Drain to report as Expired.
func (q *Queue) evictOldest() {
	var oldestBucket *bucket
	var oldestKey string
	var oldestIdx int
	var oldestAt time.Time
	found := false
	now := q.clk.Now()

	for _, b := range q.buckets {
		b.mux.Lock()
		for key, items := range b.items {
			for i, it := range items {
				if it.Message.Expired(now) {
					continue
				}
				if !found || it.InsertedAt.Before(oldestAt) {
					found = true
					oldestAt = it.InsertedAt
					oldestBucket = b
					oldestKey = key
					oldestIdx = i
				}
			}
		}
		b.mux.Unlock()
	}
	if !found {
		return
	}

	oldestBucket.mux.Lock()
	items := oldestBucket.items[oldestKey]
	// The bucket may have changed since we scanned it; re-validate the index is still sane.
	if oldestIdx < len(items) {
		victim := items[oldestIdx]
		items = append(items[:oldestIdx], items[oldestIdx+1:]...)
		if len(items) == 0 {
			delete(oldestBucket.items, oldestKey)
		} else {
			oldestBucket.items[oldestKey] = items
		}
		oldestBucket.mux.Unlock()
		q.report(victim, routererr.QueueFull)
		return
	}
	oldestBucket.mux.Unlock()
}

// Drain atomically removes and returns every non-expired item queued under key, in
// enqueue order. Expired items found during the drain are dropped and reported.
func (q *Queue) Drain(key string) []Item {
	b := q.bucketFor(key)
	b.mux.Lock()
	items := b.items[key]
	delete(b.items, key)
	b.mux.Unlock()

	now := q.clk.Now()
	live := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Message.Expired(now) {
			q.report(it, routererr.Expired)
			continue
		}
		live = append(live, it)
	}
	return live
}

// Sweep discards every expired item across all buckets and erases emptied keys. It is
// meant to be called periodically by the router's sweeper goroutine.
func (q *Queue) Sweep() {
	now := q.clk.Now()
	for _, b := range q.buckets {
		b.mux.Lock()
		for key, items := range b.items {
			live := items[:0]
			var dropped []Item
			for _, it := range items {
				if it.Message.Expired(now) {
					dropped = append(dropped, it)
					continue
				}
				live = append(live, it)
			}
			if len(live) == 0 {
				delete(b.items, key)
			} else {
				b.items[key] = live
			}
			b.mux.Unlock()
			for _, it := range dropped {
				q.report(it, routererr.Expired)
			}
			b.mux.Lock()
		}
		b.mux.Unlock()
	}
}

// Len returns the total number of items currently queued, across every key.
func (q *Queue) Len() int {
	return q.totalLen()
}

func (q *Queue) report(item Item, err error) {
	if q.onDropped != nil {
		q.onDropped(item, err)
	}
	if item.OnFailure != nil {
		item.OnFailure(item.Message, err)
	}
}

// cloneMessage returns a shallow copy of m with its Payload duplicated, so the queue
// does not hold a reference into a caller-owned slice that might be mutated or recycled
// after Route returns. An item sits in the queue for however long it takes the next hop
// to resolve, which can far outlive a single dispatch attempt, so the duplicate is a
// plain allocation rather than a pooled buffer: nothing in the queue's lifecycle hands a
// payload back for reuse, and a buffer kept alive for an unbounded time defeats pooling.
func cloneMessage(m message.Message) message.Message {
	if m.Payload != nil {
		m.Payload = append([]byte(nil), m.Payload...)
	}
	return m
}
