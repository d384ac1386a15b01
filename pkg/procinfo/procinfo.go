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

// Package procinfo provides the process information the profiler
// annotates events with: the process ID and a point-in-time snapshot of
// memory usage.
package procinfo

import "os"

const bytesPerMB = 1024 * 1024

// Memory is a snapshot of the process memory usage, sized in megabytes
// to match what trace viewers display.
type Memory struct {
	ResidentMB   float64
	VirtualMB    float64
	SuspendCount int
}

// Args returns the snapshot in the shape instant events carry it.
func (m Memory) Args() map[string]any {
	return map[string]any{
		"resident_size": m.ResidentMB,
		"virtual_size":  m.VirtualMB,
		"suspend_count": m.SuspendCount,
	}
}

// Provider reports process identity and memory statistics. A failing
// memory query must degrade to an empty annotation, never to a failed
// event.
type Provider interface {
	PID() int
	MemoryUsage() (Memory, error)
}

// Host is the Provider backed by the running process.
type Host struct{}

// NewHost returns a Provider for the current process.
func NewHost() Host {
	return Host{}
}

// PID returns the current process ID.
func (Host) PID() int {
	return os.Getpid()
}
