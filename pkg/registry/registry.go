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

// Package registry models the bridge's module registry: named module
// instances, each owned by a serial dispatch queue, invoked by method
// name. The profiler enumerates the registry to install and remove call
// interception, swapping an entry's live instance for a tracing proxy.
package registry

import (
	"sync"

	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
)

// Module is a bridge module instance.
type Module interface {
	ModuleName() string
}

// ModuleBase provides the shared lifecycle plumbing modules embed. Its
// promoted methods are framework internals and are never profiled.
type ModuleBase struct{}

// Initialize is called once the module is attached to the bridge.
func (ModuleBase) Initialize() {}

// Invalidate is called when the bridge tears the module down.
func (ModuleBase) Invalidate() {}

// Invoker dispatches method calls on a module instance. A plain module
// is invoked reflectively; an instrumented one routes through its proxy.
type Invoker interface {
	InvokeMethod(name string, args []any) ([]any, error)
	TypeName() string
}

// Entry is one registered module: its name, its live instance and the
// queue that owns it. The instance is swappable so the profiler can
// install and remove a proxy without the registry knowing about it.
type Entry struct {
	name  string
	queue *dispatch.Queue

	mu       sync.Mutex
	instance any
}

// NewEntry registers a module instance under its owning queue.
func NewEntry(module Module, queue *dispatch.Queue) *Entry {
	return &Entry{
		name:     module.ModuleName(),
		queue:    queue,
		instance: module,
	}
}

// Name returns the module's registered name.
func (e *Entry) Name() string {
	return e.name
}

// Queue returns the queue owning this instance. Mutating the instance
// must happen on this queue.
func (e *Entry) Queue() *dispatch.Queue {
	return e.queue
}

// Instance returns the current live instance.
func (e *Entry) Instance() any {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.instance
}

// SetInstance swaps the live instance.
func (e *Entry) SetInstance(instance any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.instance = instance
}

// TypeName reports the instance's runtime type. An instrumented instance
// keeps answering with its original type name.
func (e *Entry) TypeName() string {
	instance := e.Instance()
	if invoker, ok := instance.(Invoker); ok {
		return invoker.TypeName()
	}

	return typeName(instance)
}

// Invoke calls the named method on the live instance.
func (e *Entry) Invoke(method string, args ...any) ([]any, error) {
	instance := e.Instance()
	if invoker, ok := instance.(Invoker); ok {
		return invoker.InvokeMethod(method, args)
	}

	return Call(instance, method, args)
}

// Registry enumerates the modules currently known to the bridge.
type Registry interface {
	Modules() []*Entry
}

// StaticRegistry is an in-memory Registry for hosts that register their
// module set up front.
type StaticRegistry struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{}
}

// Register adds a module under its owning queue and returns its entry.
func (r *StaticRegistry) Register(module Module, queue *dispatch.Queue) *Entry {
	entry := NewEntry(module, queue)

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	return entry
}

// Modules returns a snapshot of the registered entries.
func (r *StaticRegistry) Modules() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}
