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

package interceptor_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
	"github.com/rancher-sandbox/bridge-profiler/pkg/interceptor"
	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) BeginEvent(_ trace.Thread, name string, _ map[string]any) {
	e.mu.Lock()
	e.events = append(e.events, "begin:"+name)
	e.mu.Unlock()
}

func (e *recordingEmitter) EndEvent(_ trace.Thread, category string) {
	e.mu.Lock()
	e.events = append(e.events, "end:"+category)
	e.mu.Unlock()
}

func (e *recordingEmitter) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.events...)
}

type calcModule struct {
	registry.ModuleBase
	calls int
}

func (m *calcModule) ModuleName() string { return "Calc" }

func (m *calcModule) Add(a, b int) int {
	m.calls++

	return a + b
}

func (m *calcModule) Join(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}

// TraceMarker carries the reserved profiler prefix and must never be
// intercepted.
func (m *calcModule) TraceMarker() {}

func newCalcEntry(t *testing.T) (*registry.Entry, *calcModule) {
	t.Helper()

	module := &calcModule{}
	entry := registry.NewEntry(module, dispatch.NewQueue("calc"))

	return entry, module
}

func TestInstrumentEmitsAroundCalls(t *testing.T) {
	t.Parallel()

	entry, module := newCalcEntry(t)
	emitter := &recordingEmitter{}

	require.NoError(t, interceptor.Instrument(entry, emitter))

	results, err := entry.Invoke("Add", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []any{5}, results)
	assert.Equal(t, 1, module.calls)

	assert.Equal(t, []string{
		"begin:calcModule Add",
		"end:" + interceptor.CallCategory,
	}, emitter.recorded())
}

func TestProxyForwardsVariadicArguments(t *testing.T) {
	t.Parallel()

	entry, _ := newCalcEntry(t)
	emitter := &recordingEmitter{}

	require.NoError(t, interceptor.Instrument(entry, emitter))

	results, err := entry.Invoke("Join", "-", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []any{"a-b-c"}, results)
}

func TestProxyReportsOriginalTypeName(t *testing.T) {
	t.Parallel()

	entry, _ := newCalcEntry(t)

	before := entry.TypeName()
	require.NoError(t, interceptor.Instrument(entry, &recordingEmitter{}))

	assert.Equal(t, before, entry.TypeName())
	assert.Equal(t, "calcModule", entry.TypeName())
}

func TestInstrumentIsIdempotent(t *testing.T) {
	t.Parallel()

	entry, _ := newCalcEntry(t)
	emitter := &recordingEmitter{}

	require.NoError(t, interceptor.Instrument(entry, emitter))
	require.NoError(t, interceptor.Instrument(entry, emitter))

	_, err := entry.Invoke("Add", 1, 1)
	require.NoError(t, err)

	// A double wrap would have emitted two pairs.
	assert.Len(t, emitter.recorded(), 2)
}

func TestUninstrumentRestoresOriginalInstance(t *testing.T) {
	t.Parallel()

	entry, module := newCalcEntry(t)
	emitter := &recordingEmitter{}

	require.NoError(t, interceptor.Instrument(entry, emitter))
	interceptor.Uninstrument(entry)

	assert.Same(t, module, entry.Instance())

	_, err := entry.Invoke("Add", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, emitter.recorded())

	// Uninstrumenting a plain entry is a no-op.
	interceptor.Uninstrument(entry)
	assert.Same(t, module, entry.Instance())
}

func TestPlumbingMethodsAreNotIntercepted(t *testing.T) {
	t.Parallel()

	entry, _ := newCalcEntry(t)
	emitter := &recordingEmitter{}

	require.NoError(t, interceptor.Instrument(entry, emitter))

	for _, method := range []string{"TraceMarker", "Initialize", "Invalidate", "ModuleName"} {
		_, err := entry.Invoke(method)
		require.NoError(t, err, method)
	}

	assert.Empty(t, emitter.recorded())
}

func TestInstrumentAllRoundTrip(t *testing.T) {
	t.Parallel()

	reg := registry.NewStaticRegistry()
	first := reg.Register(&calcModule{}, dispatch.NewQueue("first"))
	second := reg.Register(&calcModule{}, dispatch.NewQueue("second"))

	emitter := &recordingEmitter{}
	require.NoError(t, interceptor.InstrumentAll(context.Background(), reg, emitter))

	_, isProxy := first.Instance().(*interceptor.Proxy)
	assert.True(t, isProxy)
	_, isProxy = second.Instance().(*interceptor.Proxy)
	assert.True(t, isProxy)

	require.NoError(t, interceptor.UninstrumentAll(context.Background(), reg))

	_, isProxy = first.Instance().(*interceptor.Proxy)
	assert.False(t, isProxy)
	_, isProxy = second.Instance().(*interceptor.Proxy)
	assert.False(t, isProxy)
}

func TestInstrumentAllSkipsFailingEntry(t *testing.T) {
	t.Parallel()

	reg := registry.NewStaticRegistry()
	healthy := reg.Register(&calcModule{}, dispatch.NewQueue("healthy"))
	broken := reg.Register(&calcModule{}, dispatch.NewQueue("broken"))
	broken.SetInstance(nil)

	err := interceptor.InstrumentAll(context.Background(), reg, &recordingEmitter{})
	require.Error(t, err)

	// The healthy entry is instrumented regardless.
	_, isProxy := healthy.Instance().(*interceptor.Proxy)
	assert.True(t, isProxy)
}
