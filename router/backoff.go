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
	"math/rand"
	"time"
)

// nextBackoff doubles prev (or starts at cfg.BackoffInitial), caps at cfg.BackoffMax, and
// applies +/- cfg.BackoffJitter proportional jitter (spec §4.1.1).
func (r *Router) nextBackoff(prev time.Duration) time.Duration {
	next := prev * 2
	if prev <= 0 {
		next = r.cfg.BackoffInitial
	}
	if next > r.cfg.BackoffMax {
		next = r.cfg.BackoffMax
	}
	return jitter(next, r.cfg.BackoffJitter)
}

func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := float64(d) * fraction
	offset := (rand.Float64()*2 - 1) * delta
	jittered := float64(d) + offset
	if jittered < 0 {
		jittered = 0
	}
	return time.Duration(jittered)
}

// backoffExceedsDeadline reports whether waiting delay before the next attempt would push
// past the message's expiry, the abort condition in spec §4.1.1 ("now + nextDelay >= expiry").
func backoffExceedsDeadline(now time.Time, delay time.Duration, expiry time.Time) bool {
	return !now.Add(delay).Before(expiry)
}
