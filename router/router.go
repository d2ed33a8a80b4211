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

// Package router implements the Message Router core (spec §4.1): the orchestrator that
// consults the routing table, enqueues unknown destinations, dispatches known ones through
// transport stubs, expands multicasts into per-subscriber unicasts, delegates to a parent
// router in hierarchical deployments, and retries failed dispatch with exponential backoff.
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microbus-io/errors"
	"github.com/relaymesh/msgrouter/address"
	"github.com/relaymesh/msgrouter/cfg"
	"github.com/relaymesh/msgrouter/clock"
	"github.com/relaymesh/msgrouter/multicast"
	"github.com/relaymesh/msgrouter/parentclient"
	"github.com/relaymesh/msgrouter/queue"
	"github.com/relaymesh/msgrouter/routererr"
	"github.com/relaymesh/msgrouter/routing"
	"github.com/relaymesh/msgrouter/transport"
	"go.opentelemetry.io/otel/trace"
)

// Logger receives router lifecycle and failure events, mirroring the LogInfo/LogError/
// LogWarn surface the rest of this module's connection-oriented packages use.
type Logger interface {
	LogInfo(ctx context.Context, msg string, args ...any)
	LogWarn(ctx context.Context, msg string, args ...any)
	LogError(ctx context.Context, msg string, args ...any)
}

// Metrics receives point-in-time counters the router produces, implemented by package
// routermetrics in production and stubbed out in tests.
type Metrics interface {
	DispatchSucceeded(addr address.Address)
	DispatchFailed(addr address.Address)
	MessageDropped(reason error)
	QueueDepth(n int)
}

type noopMetrics struct{}

func (noopMetrics) DispatchSucceeded(address.Address) {}
func (noopMetrics) DispatchFailed(address.Address)    {}
func (noopMetrics) MessageDropped(error)              {}
func (noopMetrics) QueueDepth(int)                    {}

// Router is the Message Router core. The zero value is not usable; construct with New.
type Router struct {
	cfg     cfg.RouterConfig
	clk     clock.Clock
	logger  Logger
	metrics Metrics
	tracer  trace.Tracer

	table     *routing.Table
	q         *queue.Queue
	factory   *transport.Factory
	directory *multicast.Directory
	skeletons *multicast.SkeletonRegistry
	calc      multicast.AddressCalculator

	parentMu      sync.RWMutex
	parent        *parentclient.Client
	parentAddress address.Address
	parentID      string
	hasParent     atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan func()
	wg     sync.WaitGroup
	closed atomic.Bool

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Option configures optional collaborators at construction time.
type Option func(*Router)

// WithLogger installs a Logger; without one, lifecycle and failure events are discarded.
func WithLogger(l Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics installs a Metrics sink; without one, metrics calls are no-ops.
func WithMetrics(m Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithMulticastAddressCalculator installs the calculator used to compute the global
// address a locally-hosted provider's multicast republishes to (spec §4.1.3).
func WithMulticastAddressCalculator(c multicast.AddressCalculator) Option {
	return func(r *Router) { r.calc = c }
}

// New constructs a Router. factory and skeletons must already be wired with every
// transport this deployment supports; the router holds back-references only (spec §3's
// ownership note) and never constructs stubs or skeletons itself.
func New(
	routerCfg cfg.RouterConfig,
	clk clock.Clock,
	table *routing.Table,
	factory *transport.Factory,
	skeletons *multicast.SkeletonRegistry,
	opts ...Option,
) *Router {
	if clk == nil {
		clk = clock.Real
	}
	ctx, cancel := context.WithCancel(context.Background())

	r := &Router{
		cfg:       routerCfg,
		clk:       clk,
		logger:    nil,
		metrics:   noopMetrics{},
		table:     table,
		factory:   factory,
		directory: multicast.NewDirectory(),
		skeletons: skeletons,
		tracer:    trace.NewNoopTracerProvider().Tracer(""),
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(chan func(), 4096),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	if r.tracer == nil {
		r.tracer = trace.NewNoopTracerProvider().Tracer("")
	}

	r.q = queue.New(routerCfg.QueueMaxLength, clk, r.onQueueDropped)

	workers := routerCfg.Workers
	if workers < 2 {
		workers = 2
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}

	go r.sweepLoop()

	return r
}

func (r *Router) worker() {
	defer r.wg.Done()
	for {
		select {
		case job, ok := <-r.jobs:
			if !ok {
				return
			}
			job()
		case <-r.ctx.Done():
			return
		}
	}
}

// submit hands a unit of dispatch work to the worker pool (spec §5: "route calls ...
// are handed off immediately"). If the pool's backlog is saturated, the job runs inline
// rather than blocking the caller's thread indefinitely or dropping work silently.
func (r *Router) submit(job func()) {
	if r.closed.Load() {
		return
	}
	select {
	case r.jobs <- job:
	default:
		job()
	}
}

func (r *Router) onQueueDropped(item queue.Item, err error) {
	r.metrics.MessageDropped(err)
}

// LoadRoutingTable loads provisioned entries from the table's persistence path. A missing
// file is not an error (spec §4.1: "load ... implicit save"); a malformed file aborts the
// load but the router continues with an empty sticky set (spec §4.5).
func (r *Router) LoadRoutingTable() error {
	if err := r.table.LoadFromFile(); err != nil {
		if r.logger != nil {
			r.logger.LogError(context.Background(), "loading routing table", "error", err)
		}
		return errors.Trace(err)
	}
	return nil
}

// Shutdown drains in-flight dispatch work and stops background timers, waiting up to
// timeout before reporting the drain incomplete (spec §4.5's cooperative-shutdown note).
func (r *Router) Shutdown(timeout time.Duration) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.sweepStop)
	r.cancel()
	close(r.jobs)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		if r.logger != nil {
			r.logger.LogWarn(context.Background(), "shutdown deadline exceeded, workers still draining")
		}
		return errors.Trace(routererr.Timeout)
	}

	select {
	case <-r.sweepDone:
	case <-time.After(timeout):
	}

	r.parentMu.RLock()
	p := r.parent
	r.parentMu.RUnlock()
	if p != nil {
		p.Close()
	}
	return nil
}
