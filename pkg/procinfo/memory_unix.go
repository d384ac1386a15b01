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

//go:build linux || darwin

package procinfo

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// MemoryUsage samples the process's resident and virtual sizes. The
// resident size comes from the kernel's rusage accounting; the virtual
// size is the memory obtained from the OS by the runtime.
func (Host) MemoryUsage() (Memory, error) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return Memory{}, fmt.Errorf("querying rusage: %w", err)
	}

	// Maxrss is reported in kilobytes on Linux and in bytes on Darwin.
	resident := float64(usage.Maxrss)
	if runtime.GOOS == "linux" {
		resident *= 1024
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return Memory{
		ResidentMB: resident / bytesPerMB,
		VirtualMB:  float64(stats.Sys) / bytesPerMB,
	}, nil
}
