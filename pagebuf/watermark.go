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

package pagebuf

import "github.com/TimeWtr/pagestream/config"

//go:generate mockgen -destination=./mocks/watermark_mock.go -package pagebuf_mocks github.com/TimeWtr/pagestream/pagebuf BackpressurePolicy

// BackpressurePolicy decides whether PageBuffers should stop accepting
// fresh pages given the current buffered-byte total.
//
// This is a generalization of the teacher's EvictPolicy contract
// (core/queue.go): that policy told a bounded queue when to evict old
// entries to make room for new ones. A read-side FIFO cannot evict —
// dropping an unread page would silently corrupt the byte stream — so
// instead of Evict() this contract exposes only ShouldPause, and the
// orchestrator (InputStream.readable) simply declines to call the source
// again until the consumer has drained enough to cross back under Low.
type BackpressurePolicy interface {
	// ShouldPause reports whether, at bufferedBytes total, refill should
	// be paused.
	ShouldPause(bufferedBytes int) bool
	// Name identifies the policy for logging/metrics.
	Name() string
}

var (
	_ BackpressurePolicy = (*WatermarkPolicy)(nil)
	_ BackpressurePolicy = (*DynamicWatermarkPolicy)(nil)
)

// WatermarkPolicy is the default BackpressurePolicy: pause once buffered
// bytes reach High, resume once they fall to or below Low. It tracks its
// own paused state so the High/Low pair produces hysteresis instead of
// flapping at the boundary.
type WatermarkPolicy struct {
	high, low int
	paused    bool
}

func NewWatermarkPolicy(high, low int) *WatermarkPolicy {
	return &WatermarkPolicy{high: high, low: low}
}

func (w *WatermarkPolicy) ShouldPause(bufferedBytes int) bool {
	switch {
	case bufferedBytes >= w.high:
		w.paused = true
	case bufferedBytes <= w.low:
		w.paused = false
	}
	return w.paused
}

func (w *WatermarkPolicy) Name() string { return "watermark" }

// DynamicWatermarkPolicy is a WatermarkPolicy whose high/low pair is read
// from a config.SwitchCondition on every call instead of being fixed at
// construction, so an owner can retune backpressure (e.g. in response to
// memory pressure) without tearing down the stream. The hysteresis state
// itself still lives here, not in the SwitchCondition, since it is a
// property of this one queue's observation history.
type DynamicWatermarkPolicy struct {
	sc     *config.SwitchCondition
	paused bool
}

func NewDynamicWatermarkPolicy(sc *config.SwitchCondition) *DynamicWatermarkPolicy {
	return &DynamicWatermarkPolicy{sc: sc}
}

func (w *DynamicWatermarkPolicy) ShouldPause(bufferedBytes int) bool {
	cur := w.sc.GetConfig()
	switch {
	case bufferedBytes >= cur.High:
		w.paused = true
	case bufferedBytes <= cur.Low:
		w.paused = false
	}
	return w.paused
}

func (w *DynamicWatermarkPolicy) Name() string { return "dynamic_watermark" }
