/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

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

package lru

import "time"

// cacheOptions captures the effect of applying Option values to a Store or Load call.
type cacheOptions struct {
	Weight int
	Bump   bool
	MaxAge time.Duration
}

// Option customizes a single Store, Load or LoadOrStore call.
type Option func(opts *cacheOptions)

// Weight sets the weight charged against the cache's maximum capacity for this element.
// The default weight is 1.
func Weight(w int) Option {
	return func(opts *cacheOptions) {
		opts.Weight = w
	}
}

// MaxAge overrides the cache's default age limit for this single call.
func MaxAge(ttl time.Duration) Option {
	return func(opts *cacheOptions) {
		opts.MaxAge = ttl
	}
}

// Bump controls whether a Load call renews the element's position and life span.
// The default is true.
func Bump(b bool) Option {
	return func(opts *cacheOptions) {
		opts.Bump = b
	}
}

// NoBump indicates that a Load call should not renew the element's position and life span.
func NoBump() Option {
	return Bump(false)
}
