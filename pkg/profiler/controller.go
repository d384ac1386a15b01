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

// Package profiler owns the profiling session lifecycle: the global
// enable flag, sink selection, module instrumentation fan-out, periodic
// sampling and trace finalization.
package profiler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/rancher-sandbox/bridge-profiler/pkg/interceptor"
	"github.com/rancher-sandbox/bridge-profiler/pkg/procinfo"
	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"github.com/rancher-sandbox/bridge-profiler/pkg/sink"
	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// DefaultSampleInterval is the period of the vsync sampler.
const DefaultSampleInterval = 10 * time.Millisecond

// Observer is notified when a profiling session starts or stops, e.g.
// by dev-tooling UI.
type Observer interface {
	ProfilingStarted()
	ProfilingStopped()
}

// Controller manages the process-wide profiling state. Exactly one
// session may be active at a time, enforced by a single atomic flag;
// when profiling is off every recording entry point costs one atomic
// load.
type Controller struct {
	active atomic.Bool
	proc   procinfo.Provider

	mu             sync.Mutex
	backend        sink.Backend
	session        *session
	observers      []Observer
	sampleInterval time.Duration
}

// NewController creates an inactive controller.
func NewController(proc procinfo.Provider) *Controller {
	return &Controller{
		proc:           proc,
		sampleInterval: DefaultSampleInterval,
	}
}

// IsActive reports whether a session is running. Lock-free.
func (c *Controller) IsActive() bool {
	return c.active.Load()
}

// RegisterBackend installs a high-performance tracing backend, replacing
// any previous registration. It takes effect on the next Start.
func (c *Controller) RegisterBackend(backend sink.Backend) {
	c.mu.Lock()
	c.backend = backend
	c.mu.Unlock()
}

// AddObserver subscribes to session start/stop notifications.
func (c *Controller) AddObserver(observer Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, observer)
	c.mu.Unlock()
}

// SetSampleInterval overrides the vsync sampler period. It takes effect
// on the next Start.
func (c *Controller) SetSampleInterval(interval time.Duration) {
	c.mu.Lock()
	c.sampleInterval = interval
	c.mu.Unlock()
}

// Start begins a profiling session: it selects the sink, instruments
// every module the registry knows about on its owning queue, and arms
// the periodic sampler. Starting while already active is a harmless
// no-op that leaves all session state untouched.
func (c *Controller) Start(ctx context.Context, reg registry.Registry) {
	if !c.active.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	s := newSession(c.proc, c.backend)
	c.session = s
	interval := c.sampleInterval
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	log.Debugf("profiling session started, pid %d", s.pid)

	// Pin the main thread to the top of the trace viewer's display.
	s.sink.MetadataEvent("thread_sort_index", trace.Thread{Name: "main"},
		map[string]any{"sort_index": -1000})

	if err := interceptor.InstrumentAll(ctx, reg, c); err != nil {
		log.Errorf("instrumenting modules: %v", err)
	}

	s.startSampler(c, interval)

	for _, observer := range observers {
		observer.ProfilingStarted()
	}
}

// Stop ends the session: it reverses instrumentation on every module
// (awaited, so teardown is observably complete), then finalizes the sink
// asynchronously. onComplete receives the trace payload; for a backend
// session it is only invoked when the backend handed one back. Stopping
// while inactive is a no-op.
func (c *Controller) Stop(ctx context.Context, reg registry.Registry, onComplete func([]byte)) {
	if !c.active.CompareAndSwap(true, false) {
		return
	}

	c.mu.Lock()
	s := c.session
	c.session = nil
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, observer := range observers {
		observer.ProfilingStopped()
	}

	if s == nil {
		return
	}

	s.stopSampler()

	if err := interceptor.UninstrumentAll(ctx, reg); err != nil {
		log.Errorf("uninstrumenting modules: %v", err)
	}

	go s.finalize(ctx, onComplete)
}

// currentSession returns the active session, or nil. The atomic load
// keeps the inactive path to a single branch.
func (c *Controller) currentSession() *session {
	if !c.active.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

// BeginEvent opens a synchronous event on the calling thread.
func (c *Controller) BeginEvent(th trace.Thread, name string, args map[string]any) {
	if s := c.currentSession(); s != nil {
		s.sink.BeginEvent(th, time.Now(), name, args)
	}
}

// EndEvent closes the calling thread's most recent open event.
func (c *Controller) EndEvent(th trace.Thread, category string) {
	if s := c.currentSession(); s != nil {
		s.sink.EndEvent(th, time.Now(), category)
	}
}

// BeginAsyncEvent opens an async event, returning its cookie, or 0 when
// no session is active.
func (c *Controller) BeginAsyncEvent(name string, args map[string]any) uint64 {
	if s := c.currentSession(); s != nil {
		return s.sink.BeginAsyncEvent(time.Now(), name, args)
	}

	return 0
}

// EndAsyncEvent closes the cookie's async event on the calling thread.
func (c *Controller) EndAsyncEvent(cookie uint64, category string, th trace.Thread) {
	if s := c.currentSession(); s != nil {
		s.sink.EndAsyncEvent(cookie, time.Now(), category, th)
	}
}

// InstantEvent records a point-in-time event with a memory annotation.
func (c *Controller) InstantEvent(th trace.Thread, name, scope string) {
	if s := c.currentSession(); s != nil {
		s.sink.InstantEvent(th, time.Now(), name, scope)
	}
}

// BeginFlowEvent opens a flow arrow, returning its cookie, or 0 when no
// session is active.
func (c *Controller) BeginFlowEvent(th trace.Thread) uint64 {
	if s := c.currentSession(); s != nil {
		return s.sink.BeginFlowEvent(th, time.Now())
	}

	return 0
}

// EndFlowEvent closes the cookie's flow arrow.
func (c *Controller) EndFlowEvent(th trace.Thread, cookie uint64) {
	if s := c.currentSession(); s != nil {
		s.sink.EndFlowEvent(th, time.Now(), cookie)
	}
}
