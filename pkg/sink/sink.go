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

// Package sink implements the destinations recorded events flow into:
// an in-memory event log that serializes to Trace Event Format JSON, or
// an adapter forwarding to an injected high-performance tracing backend.
// A session uses exactly one of the two.
package sink

import (
	"context"
	"time"

	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// Sink receives recorded events. Callers are expected to gate every call
// on the session's active flag; sinks do not re-check it.
//
// Timestamps are captured at the call site, not at processing time. The
// two deliberate exceptions are the memory annotation of instant events
// and the thread an async event is attributed to, both captured when the
// event is processed.
type Sink interface {
	// BeginEvent opens a synchronous event on the calling thread's
	// stack.
	BeginEvent(th trace.Thread, ts time.Time, name string, args map[string]any)

	// EndEvent closes the most recent open synchronous event on the
	// thread's stack. An end with no matching begin is silently
	// dropped.
	EndEvent(th trace.Thread, ts time.Time, category string)

	// BeginAsyncEvent opens an async event and returns the cookie
	// correlating it with its end. Cookies are monotonically
	// increasing and never reused within a session.
	BeginAsyncEvent(ts time.Time, name string, args map[string]any) uint64

	// EndAsyncEvent closes the async event identified by cookie. The
	// event is attributed to the thread that closed it. An unknown or
	// already-consumed cookie is silently dropped.
	EndAsyncEvent(cookie uint64, ts time.Time, category string, th trace.Thread)

	// InstantEvent records a point-in-time event annotated with a
	// process memory snapshot.
	InstantEvent(th trace.Thread, ts time.Time, name, scope string)

	// BeginFlowEvent and EndFlowEvent draw a causal arrow between the
	// two points sharing the returned cookie.
	BeginFlowEvent(th trace.Thread, ts time.Time) uint64
	EndFlowEvent(th trace.Thread, ts time.Time, cookie uint64)

	// MetadataEvent describes the trace itself, e.g. thread display
	// ordering. Backend sinks ignore it.
	MetadataEvent(name string, th trace.Thread, args map[string]any)

	// Finish finalizes the sink and returns its payload. ok reports
	// whether a payload exists; backend sinks may legitimately finish
	// without one.
	Finish(ctx context.Context) (payload []byte, ok bool, err error)
}
