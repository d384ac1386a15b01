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

package interceptor

import (
	"fmt"
	"reflect"

	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

// CallCategory tags the complete events emitted around intercepted
// calls.
const CallCategory = "call,modules,auto"

// Emitter receives the begin/end pairs the trampoline emits. The
// profiler's controller implements it; when profiling is off the
// controller turns each call into a single atomic load.
type Emitter interface {
	BeginEvent(th trace.Thread, name string, args map[string]any)
	EndEvent(th trace.Thread, category string)
}

// Proxy wraps a live module instance. It satisfies registry.Invoker, so
// entry.Invoke routes through it; intercepted methods run inside a
// begin/end pair, everything else forwards untouched.
type Proxy struct {
	original any
	receiver reflect.Value
	table    *shadowTable
	emitter  Emitter
	thread   trace.Thread
}

// TypeName answers with the original type's name: callers must never
// observe that the instance was swapped.
func (p *Proxy) TypeName() string {
	return p.table.typeName
}

// Unwrap returns the original instance.
func (p *Proxy) Unwrap() any {
	return p.original
}

// InvokeMethod is the trampoline: emit begin, call the original
// implementation with the arguments untouched, emit end, return the
// results untouched. The implementation is the unbound method of the
// original type, so the call can never re-enter the proxy.
func (p *Proxy) InvokeMethod(name string, args []any) ([]any, error) {
	spec, ok := p.table.methods[name]
	if !ok {
		// Not an intercepted method; plain forward.
		return registry.Call(p.original, name, args)
	}

	in, err := registry.BuildCallArgs(spec.fn.Type(), 1, args)
	if err != nil {
		return nil, fmt.Errorf("invoking %s.%s: %w", p.table.typeName, name, err)
	}

	p.emitter.BeginEvent(p.thread, spec.display, nil)
	defer p.emitter.EndEvent(p.thread, CallCategory)

	out := spec.fn.Call(append([]reflect.Value{p.receiver}, in...))

	return registry.CollectResults(out), nil
}

// Instrument swaps the entry's instance for a tracing proxy. An already
// instrumented entry is left alone. A failure to build the shadow table
// abandons instrumentation of this entry only.
func Instrument(entry *registry.Entry, emitter Emitter) error {
	instance := entry.Instance()
	if instance == nil {
		return fmt.Errorf("module %q has no live instance", entry.Name())
	}

	if _, ok := instance.(*Proxy); ok {
		return nil
	}

	table, err := shadowTableFor(reflect.TypeOf(instance))
	if err != nil {
		return fmt.Errorf("instrumenting module %q: %w", entry.Name(), err)
	}

	entry.SetInstance(&Proxy{
		original: instance,
		receiver: reflect.ValueOf(instance),
		table:    table,
		emitter:  emitter,
		thread:   entry.Queue().Thread(),
	})

	return nil
}

// Uninstrument restores the entry's original instance. A plain entry is
// left alone.
func Uninstrument(entry *registry.Entry) {
	if proxy, ok := entry.Instance().(*Proxy); ok {
		entry.SetInstance(proxy.Unwrap())
	}
}
