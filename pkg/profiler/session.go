/*
Copyright © 2026 SUSE LLC
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

package profiler

import (
	"context"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
	"github.com/rancher-sandbox/bridge-profiler/pkg/procinfo"
	"github.com/rancher-sandbox/bridge-profiler/pkg/sink"
	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// session is one profiling run: one PID, one start time, one sink, one
// serial queue the sink records onto. Created by Start, torn down after
// Stop's finalization completes.
type session struct {
	pid   int
	clock *trace.Clock
	queue *dispatch.Queue
	sink  sink.Sink

	samplerStop chan struct{}
	samplerDone chan struct{}
}

// newSession selects the sink: a backend adapter when a backend has been
// registered, the in-memory event log otherwise.
func newSession(proc procinfo.Provider, backend sink.Backend) *session {
	s := &session{
		pid:   proc.PID(),
		clock: trace.NewClock(time.Now()),
		queue: dispatch.NewQueue("bridge-profiler"),
	}

	if backend != nil {
		s.sink = sink.NewBackendAdapter(backend)
	} else {
		s.sink = sink.NewEventLog(proc, s.clock, s.queue)
	}

	return s
}

// startSampler arms the periodic tick that emits one instant sample
// event per interval.
func (s *session) startSampler(c *Controller, interval time.Duration) {
	s.samplerStop = make(chan struct{})
	s.samplerDone = make(chan struct{})

	thread := s.queue.Thread()

	go func() {
		defer close(s.samplerDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.samplerStop:
				return
			case <-ticker.C:
				c.InstantEvent(thread, "VSYNC", "g")
			}
		}
	}()
}

// stopSampler disarms the tick and waits for the sampler goroutine to
// exit, so no sample lands after finalization starts.
func (s *session) stopSampler() {
	if s.samplerStop == nil {
		return
	}

	close(s.samplerStop)
	<-s.samplerDone
}

// finalize drains and serializes the sink, hands the payload to
// onComplete, and shuts the session queue down.
func (s *session) finalize(ctx context.Context, onComplete func([]byte)) {
	payload, ok, err := s.sink.Finish(ctx)
	if err != nil {
		log.Errorf("finalizing trace: %v", err)
	} else if ok && onComplete != nil {
		onComplete(payload)
	}

	if err := s.queue.Shutdown(context.Background()); err != nil {
		log.Errorf("shutting down profiler queue: %v", err)
	}
}
