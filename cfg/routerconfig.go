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

// Package cfg resolves the router's configuration properties (spec.md §6) from environment
// variables, following the env package's precedence, with validated defaults.
package cfg

import (
	"strconv"
	"time"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/env"
)

// RouterConfig holds the resolved values of every setting enumerated in spec.md §6.
type RouterConfig struct {
	QueueMaxLength       int
	QueueSweepInterval   time.Duration
	BackoffInitial       time.Duration
	BackoffMax           time.Duration
	BackoffJitter        float64
	MulticastOpTimeout   time.Duration
	Workers              int
	PersistencePath      string
}

// envKeys maps each setting to the environment variable that overrides it (SPEC_FULL.md §E).
var envKeys = struct {
	QueueMaxLength, QueueSweepIntervalMs, BackoffInitialMs, BackoffMaxMs,
	BackoffJitter, MulticastOpTimeoutMs, Workers, PersistencePath string
}{
	QueueMaxLength:        "ROUTER_QUEUE_MAX_LENGTH",
	QueueSweepIntervalMs:  "ROUTER_QUEUE_SWEEP_INTERVAL_MS",
	BackoffInitialMs:      "ROUTER_BACKOFF_INITIAL_MS",
	BackoffMaxMs:          "ROUTER_BACKOFF_MAX_MS",
	BackoffJitter:         "ROUTER_BACKOFF_JITTER",
	MulticastOpTimeoutMs:  "ROUTER_MULTICAST_OP_TIMEOUT_MS",
	Workers:               "ROUTER_WORKERS",
	PersistencePath:       "ROUTER_PERSISTENCE_PATH",
}

// DefaultRouterConfig returns the spec.md §6 defaults, unmodified by environment overrides.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		QueueMaxLength:     10000,
		QueueSweepInterval: time.Second,
		BackoffInitial:     20 * time.Millisecond,
		BackoffMax:         5 * time.Second,
		BackoffJitter:      0.25,
		MulticastOpTimeout: 60 * time.Second,
		Workers:            4,
		PersistencePath:    "routing-table.persist",
	}
}

// LoadRouterConfig resolves RouterConfig starting from the spec defaults and applying any
// environment variable overrides found via the env package.
func LoadRouterConfig() (RouterConfig, error) {
	rc := DefaultRouterConfig()

	if v, ok := env.Lookup(envKeys.QueueMaxLength); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.QueueMaxLength, v)
		}
		rc.QueueMaxLength = n
	}
	if v, ok := env.Lookup(envKeys.QueueSweepIntervalMs); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.QueueSweepIntervalMs, v)
		}
		rc.QueueSweepInterval = time.Duration(ms) * time.Millisecond
	}
	if v, ok := env.Lookup(envKeys.BackoffInitialMs); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.BackoffInitialMs, v)
		}
		rc.BackoffInitial = time.Duration(ms) * time.Millisecond
	}
	if v, ok := env.Lookup(envKeys.BackoffMaxMs); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.BackoffMaxMs, v)
		}
		rc.BackoffMax = time.Duration(ms) * time.Millisecond
	}
	if v, ok := env.Lookup(envKeys.BackoffJitter); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.BackoffJitter, v)
		}
		rc.BackoffJitter = f
	}
	if v, ok := env.Lookup(envKeys.MulticastOpTimeoutMs); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.MulticastOpTimeoutMs, v)
		}
		rc.MulticastOpTimeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := env.Lookup(envKeys.Workers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return rc, errors.Newf("invalid %s: %s", envKeys.Workers, v)
		}
		rc.Workers = n
	}
	if v, ok := env.Lookup(envKeys.PersistencePath); ok {
		rc.PersistencePath = v
	}
	return rc, nil
}
