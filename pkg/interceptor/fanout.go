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
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// InstrumentAll installs interception on every entry in the registry,
// dispatched onto each entry's owning queue so instances are never
// mutated cross-thread. It returns once every entry has been processed.
// A failing entry is skipped, not fatal; failures are aggregated into
// the returned error.
func InstrumentAll(ctx context.Context, reg registry.Registry, emitter Emitter) error {
	return forEachOnOwningQueue(ctx, reg, func(entry *registry.Entry) error {
		return Instrument(entry, emitter)
	})
}

// UninstrumentAll reverses interception on every entry, dispatched onto
// each entry's owning queue. It is the explicit synchronization point
// for teardown: when it returns, every instance has been restored.
func UninstrumentAll(ctx context.Context, reg registry.Registry) error {
	return forEachOnOwningQueue(ctx, reg, func(entry *registry.Entry) error {
		Uninstrument(entry)

		return nil
	})
}

func forEachOnOwningQueue(ctx context.Context, reg registry.Registry, fn func(*registry.Entry) error) error {
	group, ctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	appendErr := func(err error) {
		mu.Lock()
		errs = multierror.Append(errs, err)
		mu.Unlock()
	}

	for _, entry := range reg.Modules() {
		done := make(chan error, 1)

		if err := entry.Queue().Dispatch(func() {
			done <- fn(entry)
		}); err != nil {
			appendErr(fmt.Errorf("module %q: %w", entry.Name(), err))

			continue
		}

		group.Go(func() error {
			select {
			case err := <-done:
				if err != nil {
					appendErr(err)
				}

				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	if err := group.Wait(); err != nil {
		appendErr(err)
	}

	return errs.ErrorOrNil()
}
