// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package waiter implements the suspend-until-notified capability that
// AsyncDevice sources and InputStream's async surface use to park a
// reader until bytes arrive or a deadline elapses, without involving an
// OS thread per waiter.
//
// This is a near-direct port of the teacher's WaiterManager
// (waiters.go): register/unregister/notify/Close, batched and
// non-blocking so a slow or dead waiter can never stall the notifier.
package waiter

import "sync"

// Waiter is the capability an async PageSource refill suspends on: the
// refill registers, parks on the returned channel (racing it against its
// context), and unregisters when it resumes; the producing side calls
// Notify once bytes are available.
type Waiter interface {
	// Register returns an id and a channel that receives a value once
	// this waiter is notified.
	Register() (id int, notify <-chan struct{})
	// Unregister releases a previously registered id. Safe to call
	// multiple times.
	Unregister(id int)
	// Notify wakes up to dataSize waiters (capped, non-blocking — see
	// Manager.Notify for the cap).
	Notify(dataSize int)
	// Close wakes every registered waiter with a closed channel and
	// marks the manager closed; further Register calls still succeed
	// but return an already-closed channel.
	Close()
}

// Manager is the default Waiter implementation: a map of id -> channel,
// a sync.Pool of reusable channels, and a batch/best-effort notify that
// never blocks on a slow consumer.
type Manager struct {
	ws        map[int]chan struct{}
	pool      sync.Pool
	mu        sync.Mutex
	currentID int
	closed    bool
}

var _ Waiter = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{
		ws: make(map[int]chan struct{}),
		pool: sync.Pool{
			New: func() interface{} {
				return make(chan struct{}, 1)
			},
		},
	}
}

func (w *Manager) Register() (id int, notify <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id = w.currentID + 1
	w.currentID = id
	ch, _ := w.pool.Get().(chan struct{})
	w.ws[id] = ch

	if w.closed {
		close(ch)
	}

	return id, ch
}

func (w *Manager) Unregister(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch, exist := w.ws[id]
	if !exist {
		return
	}

	delete(w.ws, id)
	if w.closed {
		// ch was closed by Close; pooling it would hand a dead channel to
		// a later Register.
		return
	}
	select {
	case <-ch:
	default:
	}
	w.pool.Put(ch)
}

// Notify wakes up to dataSize waiters in a single pass over the registry,
// capped at the smaller of MaxWaitersPerBatch and MaxTotalWaiters, so one
// call wakes at most MaxWaitersPerBatch waiters however large dataSize is.
//
// Fast path: nothing to do if there are no waiters or the manager is
// closed. Slow path: send to waiters with a non-blocking send so a
// waiter that already gave up (context done) never stalls the notifier.
func (w *Manager) Notify(dataSize int) {
	const (
		MaxWaitersPerBatch = 64
		MaxTotalWaiters    = 1024
	)
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.ws) == 0 || w.closed {
		return
	}

	totalToNotify := minInt(MaxWaitersPerBatch, dataSize, MaxTotalWaiters)
	if totalToNotify <= 0 {
		return
	}

	notified := 0
	for _, ch := range w.ws {
		if notified >= totalToNotify {
			break
		}
		select {
		case ch <- struct{}{}:
			notified++
		default:
		}
	}
}

func (w *Manager) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for _, ch := range w.ws {
		close(ch)
	}
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
