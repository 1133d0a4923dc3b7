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

// Package metrics re-keys the teacher's write/switch indicator surface to
// the events an InputStream actually produces: bytes handed to the
// consumer, refills pulled from the page source, waiters parked/woken on
// the async path, and close latency. The Collector/Recorder/
// BatchCollector split is kept exactly as core/metrics built it.
package metrics

// RefillStatus classifies the outcome of one source refill attempt.
type RefillStatus int

const (
	RefillSuccess RefillStatus = iota
	RefillEOF
	RefillPaused
)

// WaitOp marks whether a waiter is being parked or woken, mirroring the
// teacher's OperationType inc/dec pair for async worker counts.
type WaitOp int

const (
	WaitBegin WaitOp = iota
	WaitEnd
)

// Collector Indicator monitoring interface
type Collector interface {
	CollectSwitcher(enable bool) // 采集器开关
	ReadMetrics
	RefillMetrics
	WaitMetrics
	CloseMetrics
	PoolMetrics
}

// ReadMetrics covers bytes handed back to the consumer by read/readIntoEx.
type ReadMetrics interface {
	// ObserveRead Number of reads, size of bytes, number of errors
	ObserveRead(counts, bytes, errors float64)
}

// RefillMetrics covers calls into the page source to obtain more bytes.
type RefillMetrics interface {
	// ObserveRefill reports one source call's outcome, byte count, and
	// latency in seconds.
	ObserveRefill(status RefillStatus, bytes float64, latencySeconds float64)
}

// WaitMetrics covers async waiters parked on a refill.
type WaitMetrics interface {
	ObserveWait(op WaitOp, delta float64)
}

// CloseMetrics covers the close path's latency and outcome.
type CloseMetrics interface {
	ObserveClose(latencySeconds float64, failed bool)
}

// PoolMetrics Cache pool metrics data
type PoolMetrics interface {
	// AllocInc Difference by which the allocated object count increases
	AllocInc(delta float64)
}
