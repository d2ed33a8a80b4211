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

import "time"

const defaultSweepInterval = time.Second

// sweepLoop runs the scheduled expiry sweep on its own dedicated timer goroutine, separate
// from the dispatch worker pool (spec §5: "a single dedicated I/O-coordination thread owns
// timers"), so a backlog of dispatch work never delays expiry cleanup.
func (r *Router) sweepLoop() {
	defer close(r.sweepDone)

	interval := r.cfg.QueueSweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.q.Sweep()
			r.metrics.QueueDepth(r.q.Len())
		case <-r.sweepStop:
			return
		}
	}
}
