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

package registry

import (
	"fmt"
	"reflect"
)

// Call invokes the named exported method on instance reflectively.
func Call(instance any, method string, args []any) ([]any, error) {
	if instance == nil {
		return nil, fmt.Errorf("cannot invoke %q on a nil instance", method)
	}

	fn := reflect.ValueOf(instance).MethodByName(method)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%s has no method %q", typeName(instance), method)
	}

	in, err := BuildCallArgs(fn.Type(), 0, args)
	if err != nil {
		return nil, fmt.Errorf("invoking %s.%s: %w", typeName(instance), method, err)
	}

	return CollectResults(fn.Call(in)), nil
}

// BuildCallArgs converts loosely typed arguments into the reflect values
// a function of type fnType expects. offset skips leading parameters the
// caller supplies itself, e.g. the receiver of an unbound method.
func BuildCallArgs(fnType reflect.Type, offset int, args []any) ([]reflect.Value, error) {
	fixed := fnType.NumIn() - offset
	if fnType.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("expected %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))

	for i, arg := range args {
		paramIndex := i + offset
		if paramIndex >= fnType.NumIn() {
			paramIndex = fnType.NumIn() - 1
		}

		paramType := fnType.In(paramIndex)
		if fnType.IsVariadic() && paramIndex == fnType.NumIn()-1 {
			paramType = paramType.Elem()
		}

		if arg == nil {
			in[i] = reflect.Zero(paramType)

			continue
		}

		value := reflect.ValueOf(arg)
		if !value.Type().AssignableTo(paramType) {
			if !value.Type().ConvertibleTo(paramType) {
				return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, value.Type(), paramType)
			}

			value = value.Convert(paramType)
		}

		in[i] = value
	}

	return in, nil
}

// CollectResults unwraps reflect call results into plain values.
func CollectResults(out []reflect.Value) []any {
	if len(out) == 0 {
		return nil
	}

	results := make([]any, len(out))
	for i, value := range out {
		results[i] = value.Interface()
	}

	return results
}

// typeName names the instance's underlying (non-pointer) type.
func typeName(instance any) string {
	t := reflect.TypeOf(instance)
	if t == nil {
		return "<nil>"
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}
