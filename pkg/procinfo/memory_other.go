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

//go:build !linux && !darwin

package procinfo

import "runtime"

// MemoryUsage falls back to runtime accounting on platforms without
// rusage support.
func (Host) MemoryUsage() (Memory, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return Memory{
		ResidentMB: float64(stats.HeapSys) / bytesPerMB,
		VirtualMB:  float64(stats.Sys) / bytesPerMB,
	}, nil
}
