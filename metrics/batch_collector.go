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

package metrics

import (
	"sync/atomic"
	"time"
)

// BatchCollector Collector for reporting indicator data in batches,
// abstracted to provide interface to the caller
type BatchCollector interface {
	Controller
	Recorder
}

// Recorder Interface provided to the caller
type Recorder interface {
	RecordRead(count, size int64, err error)                           // Report bytes handed to the consumer
	RecordRefill(status RefillStatus, size int64, latencyMicros int64) // Report a source refill
	ObserveWaiter(op WaitOp)                                           // Report an async waiter parked/woken
	RecordClose(latencyMicros int64, err error)                        // Report stream close
	RecordPoolAlloc()                                                  // Report pool object creation data
}

// Controller Batch update controller
type Controller interface {
	Start() // Start asynchronous batch update
	Stop()  // Stop asynchronous batch updates
	Flush() // Force immediate batch update
}

// readTotals Indicators for bytes handed to the consumer
type readTotals struct {
	readCounts int64
	readSizes  int64
	readErrors int64
}

func (r *readTotals) Reset() {
	atomic.StoreInt64(&r.readCounts, 0)
	atomic.StoreInt64(&r.readSizes, 0)
	atomic.StoreInt64(&r.readErrors, 0)
}

// refillTotals Indicators for source refill calls
type refillTotals struct {
	successCounts int64
	eofCounts     int64
	pausedCounts  int64
	bytes         int64
	latencyMicros int64
}

func (r *refillTotals) Reset() {
	atomic.StoreInt64(&r.successCounts, 0)
	atomic.StoreInt64(&r.eofCounts, 0)
	atomic.StoreInt64(&r.pausedCounts, 0)
	atomic.StoreInt64(&r.bytes, 0)
	atomic.StoreInt64(&r.latencyMicros, 0)
}

type supportingTotals struct {
	waitersParked  int64
	waitersWoken   int64
	poolAlloc      int64
	closeCounts    int64
	closeErrors    int64
	closeLatencyUs int64
}

func (s *supportingTotals) Reset() {
	atomic.StoreInt64(&s.waitersParked, 0)
	atomic.StoreInt64(&s.waitersWoken, 0)
	atomic.StoreInt64(&s.poolAlloc, 0)
	atomic.StoreInt64(&s.closeCounts, 0)
	atomic.StoreInt64(&s.closeErrors, 0)
	atomic.StoreInt64(&s.closeLatencyUs, 0)
}

var _ Recorder = (*BatchCollectImpl)(nil)

// BatchCollectImpl Batch indicator collector, encapsulates the underlying
// collector, and adds a scheduled task that regularly writes indicator
// data to the underlying collector.
type BatchCollectImpl struct {
	r   *readTotals
	rf  *refillTotals
	sp  *supportingTotals
	mc  Collector
	t   *time.Ticker
	sem chan struct{}
}

func NewBatchCollector(mc Collector) *BatchCollectImpl {
	const duration = 5 * time.Second
	b := &BatchCollectImpl{
		r:   &readTotals{},
		rf:  &refillTotals{},
		sp:  &supportingTotals{},
		mc:  mc,
		t:   time.NewTicker(duration),
		sem: make(chan struct{}),
	}

	b.mc.CollectSwitcher(true)

	return b
}

func (b *BatchCollectImpl) RecordRead(count, size int64, err error) {
	if err != nil {
		atomic.AddInt64(&b.r.readErrors, 1)
		return
	}

	atomic.AddInt64(&b.r.readCounts, count)
	atomic.AddInt64(&b.r.readSizes, size)
}

func (b *BatchCollectImpl) RecordRefill(status RefillStatus, size int64, latencyMicros int64) {
	switch status {
	case RefillSuccess:
		atomic.AddInt64(&b.rf.successCounts, 1)
		atomic.AddInt64(&b.rf.bytes, size)
		atomic.StoreInt64(&b.rf.latencyMicros, latencyMicros)
	case RefillEOF:
		atomic.AddInt64(&b.rf.eofCounts, 1)
	case RefillPaused:
		atomic.AddInt64(&b.rf.pausedCounts, 1)
	}
}

func (b *BatchCollectImpl) ObserveWaiter(op WaitOp) {
	if op == WaitBegin {
		atomic.AddInt64(&b.sp.waitersParked, 1)
		return
	}
	atomic.AddInt64(&b.sp.waitersWoken, 1)
}

func (b *BatchCollectImpl) RecordClose(latencyMicros int64, err error) {
	atomic.AddInt64(&b.sp.closeCounts, 1)
	atomic.StoreInt64(&b.sp.closeLatencyUs, latencyMicros)
	if err != nil {
		atomic.AddInt64(&b.sp.closeErrors, 1)
	}
}

func (b *BatchCollectImpl) RecordPoolAlloc() {
	atomic.AddInt64(&b.sp.poolAlloc, 1)
}

func (b *BatchCollectImpl) Start() {
	go b.asyncWorker()
}

func (b *BatchCollectImpl) Stop() {
	close(b.sem)
}

func (b *BatchCollectImpl) Flush() {
	b.report()
}

func (b *BatchCollectImpl) asyncWorker() {
	for {
		select {
		case <-b.sem:
			return
		case <-b.t.C:
			b.report()
		}
	}
}

// report syncs one round of indicator data to the underlying collector.
func (b *BatchCollectImpl) report() {
	b.mc.ObserveRead(float64(atomic.LoadInt64(&b.r.readCounts)),
		float64(atomic.LoadInt64(&b.r.readSizes)),
		float64(atomic.LoadInt64(&b.r.readErrors)))
	b.r.Reset()

	const microsPerSecond = 1e6
	b.mc.ObserveRefill(RefillSuccess, float64(atomic.LoadInt64(&b.rf.bytes)),
		float64(atomic.LoadInt64(&b.rf.latencyMicros))/microsPerSecond)
	b.mc.ObserveRefill(RefillEOF, float64(atomic.LoadInt64(&b.rf.eofCounts)), 0)
	b.mc.ObserveRefill(RefillPaused, float64(atomic.LoadInt64(&b.rf.pausedCounts)), 0)
	b.rf.Reset()

	b.mc.ObserveWait(WaitBegin, float64(atomic.LoadInt64(&b.sp.waitersParked)))
	b.mc.ObserveWait(WaitEnd, float64(atomic.LoadInt64(&b.sp.waitersWoken)))
	b.mc.AllocInc(float64(atomic.LoadInt64(&b.sp.poolAlloc)))
	b.mc.ObserveClose(float64(atomic.LoadInt64(&b.sp.closeLatencyUs))/microsPerSecond,
		atomic.LoadInt64(&b.sp.closeErrors) > 0)
	b.sp.Reset()
}
