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

package trace

import "time"

// Clock converts wall-clock samples into microsecond timestamps relative
// to the start of a profiling session. Sessions are short enough that no
// wraparound handling is needed.
type Clock struct {
	start time.Time
}

// NewClock creates a Clock anchored at the given session start time.
func NewClock(start time.Time) *Clock {
	return &Clock{start: start}
}

// Start returns the session start time the clock is anchored at.
func (c *Clock) Start() time.Time {
	return c.start
}

// Relative returns the microseconds elapsed between the session start
// and the given sample.
func (c *Clock) Relative(now time.Time) float64 {
	return float64(now.Sub(c.start)) / float64(time.Microsecond)
}
