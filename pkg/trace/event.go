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

// Package trace defines the event model for the bridge profiler. Events
// follow Google's Trace Event Format, as described in
// https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU
// so that any standard trace viewer can load a recorded session unmodified.
package trace

// Phase identifies the kind of an event in a Trace Event Format file.
type Phase string

const (
	// PhaseComplete is a finished duration event carrying both a
	// timestamp and a duration. Synchronous begin/end pairs and async
	// pairs are both folded into complete events when they close.
	PhaseComplete = Phase("X")
	// PhaseInstant is a point-in-time event with no duration.
	PhaseInstant = Phase("i")
	// PhaseFlowStart and PhaseFlowEnd draw causal arrows between
	// otherwise unrelated events sharing the same flow ID.
	PhaseFlowStart = Phase("s")
	PhaseFlowEnd   = Phase("f")
	// PhaseMetadata events describe the trace itself, e.g. the
	// display ordering of threads.
	PhaseMetadata = Phase("M")
)

// Thread identifies the execution context an event belongs to. The ID
// keys internal per-thread state; the Name is what trace viewers display
// in the "tid" column.
type Thread struct {
	ID   uint64
	Name string
}

// Event is one recorded occurrence.
type Event struct {
	Name     string `json:"name"`
	Category string `json:"cat,omitempty"`
	Phase    Phase  `json:"ph"`
	// Time is the timestamp in microseconds relative to session start.
	Time float64 `json:"ts"`
	PID  int     `json:"pid"`
	TID  string  `json:"tid"`
	// Duration in microseconds; complete events only.
	Duration *float64       `json:"dur,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	// Scope of an instant event: "g" (global), "p" (process) or
	// "t" (thread).
	Scope string `json:"scope,omitempty"`
	// ID correlates flow start/end pairs.
	ID uint64 `json:"id,omitempty"`
}

// File is the top-level JSON object consumed by trace viewers. Samples
// is a placeholder required by the format; the profiler never fills it.
type File struct {
	TraceEvents []Event `json:"traceEvents"`
	Samples     []any   `json:"samples"`
}

// NewFile wraps events into a File with the samples array present but
// empty, as the viewers expect.
func NewFile(events []Event) File {
	if events == nil {
		events = []Event{}
	}

	return File{TraceEvents: events, Samples: []any{}}
}
