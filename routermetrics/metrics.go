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

// Package routermetrics implements router.Metrics with Prometheus counters and gauges,
// registered on a private registry so a single process can host more than one Router
// without instrument name collisions.
package routermetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relaymesh/msgrouter/address"
)

// Metrics is the Prometheus-backed implementation of router.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal   *prometheus.CounterVec
	messagesDropped *prometheus.CounterVec
	queueDepth      prometheus.Gauge
}

// New constructs a Metrics instance on its own registry and registers every instrument.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_dispatch_total",
			Help: "Total dispatch attempts by transport kind and outcome.",
		}, []string{"kind", "outcome"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_messages_dropped_total",
			Help: "Total messages dropped, labeled by reason.",
		}, []string{"reason"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "router_queue_depth",
			Help: "Total number of items currently held in the message queue.",
		}),
	}
	m.registry.MustRegister(m.dispatchTotal, m.messagesDropped, m.queueDepth)
	return m
}

// Handler exposes the registry in the Prometheus exposition format, for mounting on the
// process's metrics HTTP endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DispatchSucceeded records a message handed to stub.Transmit for addr's transport kind.
// The router records it for every hand-off; a failure the stub reports through its
// callback is recorded by DispatchFailed as well.
func (m *Metrics) DispatchSucceeded(addr address.Address) {
	m.dispatchTotal.WithLabelValues(string(addr.Kind), "success").Inc()
}

// DispatchFailed records a failed stub.Transmit for addr's transport kind.
func (m *Metrics) DispatchFailed(addr address.Address) {
	m.dispatchTotal.WithLabelValues(string(addr.Kind), "failure").Inc()
}

// MessageDropped records a message drop, labeled by the sentinel error identifying why.
func (m *Metrics) MessageDropped(reason error) {
	m.messagesDropped.WithLabelValues(dropReason(reason)).Inc()
}

// QueueDepth records the queue's current total length, sampled once per sweep.
func (m *Metrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func dropReason(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
