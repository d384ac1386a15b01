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

// Package dispatch implements named serial work queues. A queue owns one
// worker goroutine that calls submitted functions in the order they were
// received, so state touched only from a single queue needs no locking.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rancher-sandbox/bridge-profiler/pkg/trace"
)

var ErrQueueShutDown = errors.New("queue is shut down")

//nolint:gochecknoglobals
var nextQueueID atomic.Uint64

// Queue is a serial FIFO executor. Dispatch never blocks the caller; the
// pending list grows as needed and a single worker drains it.
type Queue struct {
	id   uint64
	name string

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []func()
	shutdown bool
	drained  chan struct{}
}

// NewQueue creates a queue with the given display name and starts its
// worker goroutine.
func NewQueue(name string) *Queue {
	q := &Queue{
		id:      nextQueueID.Add(1),
		name:    name,
		drained: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.run()

	return q
}

// Name returns the queue's display name.
func (q *Queue) Name() string {
	return q.name
}

// ID returns the queue's process-unique identifier.
func (q *Queue) ID() uint64 {
	return q.id
}

// Thread returns the execution-context identity events recorded from
// this queue should carry.
func (q *Queue) Thread() trace.Thread {
	return trace.Thread{ID: q.id, Name: q.name}
}

// Dispatch appends fn to the queue. It returns ErrQueueShutDown if the
// queue no longer accepts work; the function is then never called.
func (q *Queue) Dispatch(fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return ErrQueueShutDown
	}

	q.pending = append(q.pending, fn)
	q.cond.Signal()

	return nil
}

// Sync blocks until every function dispatched before the call has
// completed, or until the context is done.
func (q *Queue) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := q.Dispatch(func() { close(barrier) }); err != nil {
		return err
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting new work and waits for the pending list to
// drain, or for the context to be done. It is safe to call more than
// once.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.shutdown = true
	q.cond.Signal()
	q.mu.Unlock()

	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.shutdown {
			q.cond.Wait()
		}

		if len(q.pending) == 0 {
			// Shut down and fully drained.
			q.mu.Unlock()
			close(q.drained)

			return
		}

		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}
