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

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/TimeWtr/pagestream/config"
	pagebuf_mocks "github.com/TimeWtr/pagestream/pagebuf/mocks"
)

func TestWatermarkPolicy_Hysteresis(t *testing.T) {
	w := NewWatermarkPolicy(100, 20)

	if w.ShouldPause(50) {
		t.Fatal("should not pause below high watermark")
	}
	if !w.ShouldPause(100) {
		t.Fatal("should pause once at high watermark")
	}
	// Still paused between low and high: hysteresis, not flapping.
	if !w.ShouldPause(60) {
		t.Fatal("should remain paused until crossing low watermark")
	}
	if w.ShouldPause(20) {
		t.Fatal("should resume at or below low watermark")
	}
}

func TestDynamicWatermarkPolicy_ReadsLiveConfig(t *testing.T) {
	sc := config.NewSwitchCondition(config.Watermark{High: 100, Low: 10})
	w := NewDynamicWatermarkPolicy(sc)

	if w.ShouldPause(50) {
		t.Fatal("should not pause below initial high watermark")
	}

	sc.Update(config.Watermark{High: 40, Low: 10})
	if !w.ShouldPause(50) {
		t.Fatal("should pause once the live config's high watermark drops below current usage")
	}
}

// TestPageBuffers_ConsultsBackpressurePolicy exercises PageBuffers against
// a mocked BackpressurePolicy rather than the real WatermarkPolicy, the
// way queue_test.go in the teacher drives BufferQueue against a mocked
// EvictPolicy: PageBuffers only needs to know the policy was consulted
// with the right running total, not any particular policy's internals.
func TestPageBuffers_ConsultsBackpressurePolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := pagebuf_mocks.NewMockBackpressurePolicy(ctrl)
	b := New(16, mp)

	mp.EXPECT().ShouldPause(0).Return(false)
	if b.ShouldPauseRefill() {
		t.Fatal("expected policy-driven false on an empty queue")
	}

	b.PushPage(newFilledPage("abcdefgh"))

	mp.EXPECT().ShouldPause(8).Return(true)
	if !b.ShouldPauseRefill() {
		t.Fatal("expected policy-driven true once bytes are buffered")
	}
}
