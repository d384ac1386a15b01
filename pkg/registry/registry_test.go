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

package registry_test

import (
	"testing"

	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModule struct {
	registry.ModuleBase
}

func (m *echoModule) ModuleName() string { return "Echo" }

func (m *echoModule) Echo(message string) string { return message }

func (m *echoModule) Sum(values ...int) int {
	total := 0
	for _, v := range values {
		total += v
	}

	return total
}

func TestEntryInvoke(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	results, err := entry.Invoke("Echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello"}, results)
}

func TestEntryInvokeVariadic(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	results, err := entry.Invoke("Sum", 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{6}, results)

	results, err = entry.Invoke("Sum")
	require.NoError(t, err)
	assert.Equal(t, []any{0}, results)
}

func TestEntryInvokeUnknownMethod(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	_, err := entry.Invoke("Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no method "Missing"`)
}

func TestEntryInvokeArityMismatch(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	_, err := entry.Invoke("Echo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 arguments")
}

func TestEntryInvokeConvertsArguments(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	// An int32 argument converts to the int parameter.
	results, err := entry.Invoke("Sum", int32(4), int32(5))
	require.NoError(t, err)
	assert.Equal(t, []any{9}, results)
}

func TestEntryTypeName(t *testing.T) {
	t.Parallel()

	entry := registry.NewEntry(&echoModule{}, dispatch.NewQueue("echo"))

	assert.Equal(t, "echoModule", entry.TypeName())
	assert.Equal(t, "Echo", entry.Name())
}

func TestStaticRegistrySnapshot(t *testing.T) {
	t.Parallel()

	reg := registry.NewStaticRegistry()
	assert.Empty(t, reg.Modules())

	queue := dispatch.NewQueue("echo")
	entry := reg.Register(&echoModule{}, queue)

	modules := reg.Modules()
	require.Len(t, modules, 1)
	assert.Same(t, entry, modules[0])
	assert.Same(t, queue, modules[0].Queue())
}
