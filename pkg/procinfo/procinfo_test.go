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

package procinfo_test

import (
	"os"
	"testing"

	"github.com/rancher-sandbox/bridge-profiler/pkg/procinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, os.Getpid(), procinfo.NewHost().PID())
}

func TestHostMemoryUsage(t *testing.T) {
	t.Parallel()

	mem, err := procinfo.NewHost().MemoryUsage()
	require.NoError(t, err)

	assert.Greater(t, mem.ResidentMB, 0.0)
	assert.Greater(t, mem.VirtualMB, 0.0)
	assert.GreaterOrEqual(t, mem.SuspendCount, 0)
}

func TestMemoryArgs(t *testing.T) {
	t.Parallel()

	mem := procinfo.Memory{ResidentMB: 12.5, VirtualMB: 64, SuspendCount: 0}

	assert.Equal(t, map[string]any{
		"resident_size": 12.5,
		"virtual_size":  64.0,
		"suspend_count": 0,
	}, mem.Args())
}
