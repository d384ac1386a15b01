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

// Package interceptor installs call interception on live module
// instances: every eligible method call emits a begin event before the
// original implementation runs and an end event after it returns, with
// arguments and results forwarded untouched. Instances keep reporting
// their original type, so callers never observe the swap.
package interceptor

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
)

// markerPrefix is reserved for the profiler's own hooks on modules;
// methods carrying it are never intercepted.
const markerPrefix = "Trace"

// methodSpec is one intercepted method: the unbound implementation,
// looked up on the original type so the trampoline never recurses into
// the proxy, and the display name events carry.
type methodSpec struct {
	fn      reflect.Value
	display string
}

// shadowTable is the per-type interception record: the original type's
// name and its eligible method set. Tables live for the process; the set
// of distinct module types is bounded by the application.
type shadowTable struct {
	typeName string
	methods  map[string]methodSpec
}

//nolint:gochecknoglobals
var (
	tableMu sync.Mutex
	tables  = make(map[reflect.Type]*shadowTable)
)

// shadowTableFor returns the cached table for t, building it on first
// use. Concurrent builders race benignly: the first stored table wins.
func shadowTableFor(t reflect.Type) (*shadowTable, error) {
	tableMu.Lock()
	defer tableMu.Unlock()

	if table, ok := tables[t]; ok {
		return table, nil
	}

	table, err := buildShadowTable(t)
	if err != nil {
		return nil, err
	}

	tables[t] = table

	return table, nil
}

func buildShadowTable(t reflect.Type) (*shadowTable, error) {
	named := t
	for named.Kind() == reflect.Pointer {
		named = named.Elem()
	}

	if named.Name() == "" {
		return nil, fmt.Errorf("cannot shadow unnamed type %s", t)
	}

	table := &shadowTable{
		typeName: named.Name(),
		methods:  make(map[string]methodSpec),
	}

	for i := range t.NumMethod() {
		method := t.Method(i)
		if !eligible(method.Name) {
			continue
		}

		table.methods[method.Name] = methodSpec{
			fn:      method.Func,
			display: table.typeName + " " + method.Name,
		}
	}

	return table, nil
}

// eligible filters out methods that must not be wrapped: the profiler's
// reserved marker prefix, the plumbing every module shares through
// ModuleBase, and the invocation protocol itself.
func eligible(name string) bool {
	if strings.HasPrefix(name, markerPrefix) {
		return false
	}

	_, isPlumbing := plumbingMethods[name]

	return !isPlumbing
}

//nolint:gochecknoglobals
var plumbingMethods = buildPlumbingSet()

func buildPlumbingSet() map[string]struct{} {
	set := map[string]struct{}{
		// The invocation protocol; wrapping these would shadow the
		// proxy's own entry points.
		"InvokeMethod": {},
		"TypeName":     {},
		// The registry queries this during registration.
		"ModuleName": {},
	}

	base := reflect.TypeOf(registry.ModuleBase{})
	for i := range base.NumMethod() {
		set[base.Method(i).Name] = struct{}{}
	}

	return set
}
