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

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
	"github.com/rancher-sandbox/bridge-profiler/pkg/procinfo"
	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// openEvent is a begin with no end yet: what was captured at the call
// site, waiting for the matching close.
type openEvent struct {
	start time.Time
	name  string
	args  map[string]any
}

// EventLog accumulates events in memory and serializes them to Trace
// Event Format JSON when the session finishes.
//
// All mutable state is touched only from the log's serial queue, so no
// locking is needed: producers enqueue a closure per recording call and
// return immediately. The async and flow cookie counters are the one
// exception; they are atomics so BeginAsyncEvent can hand out the cookie
// before the enqueued store is processed.
type EventLog struct {
	proc  procinfo.Provider
	clock *trace.Clock
	queue *dispatch.Queue
	pid   int

	// Owned by the queue worker.
	events []trace.Event
	stacks map[uint64][]openEvent
	async  map[uint64]openEvent

	asyncCookie atomic.Uint64
	flowCookie  atomic.Uint64
}

// NewEventLog creates an event log recording onto the given serial
// queue, timestamped against the given session clock.
func NewEventLog(proc procinfo.Provider, clock *trace.Clock, queue *dispatch.Queue) *EventLog {
	return &EventLog{
		proc:   proc,
		clock:  clock,
		queue:  queue,
		pid:    proc.PID(),
		stacks: make(map[uint64][]openEvent),
		async:  make(map[uint64]openEvent),
	}
}

// BeginEvent pushes an open event onto the calling thread's stack.
func (l *EventLog) BeginEvent(th trace.Thread, ts time.Time, name string, args map[string]any) {
	l.record(func() {
		l.stacks[th.ID] = append(l.stacks[th.ID], openEvent{start: ts, name: name, args: args})
	})
}

// EndEvent pops the thread's stack and emits one complete event. With an
// empty stack the end is dropped.
func (l *EventLog) EndEvent(th trace.Thread, ts time.Time, category string) {
	l.record(func() {
		stack := l.stacks[th.ID]
		if len(stack) == 0 {
			return
		}

		open := stack[len(stack)-1]
		l.stacks[th.ID] = stack[:len(stack)-1]

		l.emitComplete(open, ts, category, th.Name)
	})
}

// BeginAsyncEvent allocates the next cookie and stores the open event
// under it. The cookie is returned before the store is processed.
func (l *EventLog) BeginAsyncEvent(ts time.Time, name string, args map[string]any) uint64 {
	cookie := l.asyncCookie.Add(1)

	l.record(func() {
		l.async[cookie] = openEvent{start: ts, name: name, args: args}
	})

	return cookie
}

// EndAsyncEvent closes the cookie's event, attributing it to the thread
// that closed it. Unknown cookies are dropped.
func (l *EventLog) EndAsyncEvent(cookie uint64, ts time.Time, category string, th trace.Thread) {
	l.record(func() {
		open, ok := l.async[cookie]
		if !ok {
			return
		}

		delete(l.async, cookie)

		l.emitComplete(open, ts, category, th.Name)
	})
}

// InstantEvent emits a point-in-time event annotated with a memory
// snapshot taken when the event is processed.
func (l *EventLog) InstantEvent(th trace.Thread, ts time.Time, name, scope string) {
	l.record(func() {
		var args map[string]any
		if mem, err := l.proc.MemoryUsage(); err == nil {
			args = mem.Args()
		} else {
			log.Debugf("memory usage unavailable for instant event %q: %v", name, err)
		}

		l.events = append(l.events, trace.Event{
			Name:  name,
			Phase: trace.PhaseInstant,
			Time:  l.clock.Relative(ts),
			PID:   l.pid,
			TID:   th.Name,
			Scope: scope,
			Args:  args,
		})
	})
}

// BeginFlowEvent emits a flow-start point and returns its cookie.
func (l *EventLog) BeginFlowEvent(th trace.Thread, ts time.Time) uint64 {
	cookie := l.flowCookie.Add(1)

	l.record(func() {
		l.emitFlow(trace.PhaseFlowStart, th, ts, cookie)
	})

	return cookie
}

// EndFlowEvent emits the flow-end point for the given cookie.
func (l *EventLog) EndFlowEvent(th trace.Thread, ts time.Time, cookie uint64) {
	l.record(func() {
		l.emitFlow(trace.PhaseFlowEnd, th, ts, cookie)
	})
}

// MetadataEvent emits a trace-description event, e.g. thread ordering.
func (l *EventLog) MetadataEvent(name string, th trace.Thread, args map[string]any) {
	l.record(func() {
		l.events = append(l.events, trace.Event{
			Name:  name,
			Phase: trace.PhaseMetadata,
			PID:   l.pid,
			TID:   th.Name,
			Args:  args,
		})
	})
}

// Finish serializes the accumulated trace and resets the log to empty.
// It blocks until the queue has processed every previously enqueued
// event, so the payload reflects all recording calls made before the
// session was stopped.
func (l *EventLog) Finish(ctx context.Context) ([]byte, bool, error) {
	var (
		payload []byte
		err     error
	)

	done := make(chan struct{})
	if qerr := l.queue.Dispatch(func() {
		defer close(done)

		payload, err = json.Marshal(trace.NewFile(l.events))
		l.reset()
	}); qerr != nil {
		return nil, false, fmt.Errorf("finalizing event log: %w", qerr)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	if err != nil {
		return nil, false, fmt.Errorf("serializing trace: %w", err)
	}

	return payload, true, nil
}

func (l *EventLog) emitComplete(open openEvent, end time.Time, category, threadName string) {
	dur := float64(end.Sub(open.start)) / float64(time.Microsecond)
	if dur < 0 {
		dur = 0
	}

	l.events = append(l.events, trace.Event{
		Name:     open.name,
		Category: category,
		Phase:    trace.PhaseComplete,
		Time:     l.clock.Relative(open.start),
		PID:      l.pid,
		TID:      threadName,
		Duration: &dur,
		Args:     open.args,
	})
}

func (l *EventLog) emitFlow(phase trace.Phase, th trace.Thread, ts time.Time, cookie uint64) {
	l.events = append(l.events, trace.Event{
		Name:     "flow",
		Category: "flow",
		Phase:    phase,
		Time:     l.clock.Relative(ts),
		PID:      l.pid,
		TID:      th.Name,
		ID:       cookie,
	})
}

// record enqueues a state mutation. Once the queue is shut down the
// session is over and late events are dropped, matching the contract
// that recording after stop is a no-op.
func (l *EventLog) record(fn func()) {
	_ = l.queue.Dispatch(fn)
}

func (l *EventLog) reset() {
	l.events = nil
	l.stacks = make(map[uint64][]openEvent)
	l.async = make(map[uint64]openEvent)
	l.asyncCookie.Store(0)
	l.flowCookie.Store(0)
}
