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
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// TagAlways is the section tag for events that should always be
// captured, regardless of the backend's tag filtering.
const TagAlways uint64 = 1 << 0

// Arg is one key/value annotation forwarded to a backend section.
type Arg struct {
	Key   string
	Value string
}

// Backend is an injected high-performance tracing implementation, e.g. a
// systrace-style kernel buffer writer. Calls happen on the recording
// thread; implementations are expected to be cheap and thread-safe.
type Backend interface {
	// Start opens the backend's trace buffer and returns its handle.
	Start() int64
	// Stop closes the buffer and returns the captured payload, or nil
	// if the backend keeps the data itself.
	Stop() []byte

	BeginSection(tag uint64, name string, args []Arg)
	EndSection(tag uint64, args []Arg)
	BeginAsyncSection(tag uint64, name string, cookie uint64, args []Arg)
	EndAsyncSection(tag uint64, name string, cookie uint64, args []Arg)
	InstantSection(tag uint64, name, scope string)
	BeginAsyncFlow(tag uint64, name string, cookie uint64)
	EndAsyncFlow(tag uint64, name string, cookie uint64)
}

// BackendAdapter satisfies Sink by forwarding every event to an injected
// Backend instead of building JSON in memory. It tracks open async
// sections so the closing call can repeat the section name, which the
// backend interface requires.
type BackendAdapter struct {
	backend Backend
	handle  int64

	mu        sync.Mutex
	openAsync map[uint64]string

	asyncCookie atomic.Uint64
	flowCookie  atomic.Uint64
}

// NewBackendAdapter starts the backend's buffer and returns the adapter
// feeding it.
func NewBackendAdapter(backend Backend) *BackendAdapter {
	return &BackendAdapter{
		backend:   backend,
		handle:    backend.Start(),
		openAsync: make(map[uint64]string),
	}
}

// BufferHandle returns the handle the backend reported when its buffer
// was opened.
func (a *BackendAdapter) BufferHandle() int64 {
	return a.handle
}

// BeginEvent opens a synchronous section.
func (a *BackendAdapter) BeginEvent(_ trace.Thread, _ time.Time, name string, args map[string]any) {
	a.backend.BeginSection(TagAlways, name, flattenArgs(args))
}

// EndEvent closes the innermost synchronous section. Section nesting is
// the backend's own bookkeeping.
func (a *BackendAdapter) EndEvent(_ trace.Thread, _ time.Time, _ string) {
	a.backend.EndSection(TagAlways, nil)
}

// BeginAsyncEvent opens an async section and returns its cookie.
func (a *BackendAdapter) BeginAsyncEvent(_ time.Time, name string, args map[string]any) uint64 {
	cookie := a.asyncCookie.Add(1)

	a.mu.Lock()
	a.openAsync[cookie] = name
	a.mu.Unlock()

	a.backend.BeginAsyncSection(TagAlways, name, cookie, flattenArgs(args))

	return cookie
}

// EndAsyncEvent closes the async section opened under cookie; unknown
// cookies are dropped.
func (a *BackendAdapter) EndAsyncEvent(cookie uint64, _ time.Time, _ string, _ trace.Thread) {
	a.mu.Lock()
	name, ok := a.openAsync[cookie]
	if ok {
		delete(a.openAsync, cookie)
	}
	a.mu.Unlock()

	if !ok {
		return
	}

	a.backend.EndAsyncSection(TagAlways, name, cookie, nil)
}

// InstantEvent forwards a point-in-time section.
func (a *BackendAdapter) InstantEvent(_ trace.Thread, _ time.Time, name, scope string) {
	a.backend.InstantSection(TagAlways, name, scope)
}

// BeginFlowEvent opens a flow arrow and returns its cookie.
func (a *BackendAdapter) BeginFlowEvent(_ trace.Thread, _ time.Time) uint64 {
	cookie := a.flowCookie.Add(1)
	a.backend.BeginAsyncFlow(TagAlways, "flow", cookie)

	return cookie
}

// EndFlowEvent closes the flow arrow for the given cookie.
func (a *BackendAdapter) EndFlowEvent(_ trace.Thread, _ time.Time, cookie uint64) {
	a.backend.EndAsyncFlow(TagAlways, "flow", cookie)
}

// MetadataEvent is meaningless to section-based backends.
func (a *BackendAdapter) MetadataEvent(string, trace.Thread, map[string]any) {}

// Finish stops the backend. ok reports whether the backend handed back a
// payload; many backends write to their own storage and return none.
func (a *BackendAdapter) Finish(context.Context) ([]byte, bool, error) {
	payload := a.backend.Stop()

	return payload, payload != nil, nil
}

// flattenArgs converts an args map into the ordered key/value pairs the
// backend interface consumes. Keys are sorted for determinism.
func flattenArgs(args map[string]any) []Arg {
	if len(args) == 0 {
		return nil
	}

	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	flat := make([]Arg, 0, len(keys))
	for _, key := range keys {
		flat = append(flat, Arg{Key: key, Value: fmt.Sprint(args[key])})
	}

	return flat
}
