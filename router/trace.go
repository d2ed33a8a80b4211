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
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithTracer installs the OpenTelemetry tracer used to wrap route, multicast fan-out, and
// dispatch work in spans. Without one, the router falls back to the global no-op tracer
// provider and span calls cost nothing.
func WithTracer(t trace.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// startSpan opens a span as a child of whatever span ctx already carries, mirroring the
// teacher's StartSpan/Span convention of threading the active span through the context.
func (r *Router) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err, if any, as the span's terminal status before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
