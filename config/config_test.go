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

package config

import (
	"testing"
	"time"
)

func TestSwitchCondition_UpdateReplacesConfigAndPings(t *testing.T) {
	sc := NewSwitchCondition(Watermark{High: 100, Low: 10})

	if got := sc.GetConfig(); got.High != 100 || got.Low != 10 {
		t.Fatalf("unexpected initial config: %+v", got)
	}

	notify := sc.Register()
	sc.Update(Watermark{High: 200, Low: 20})

	if got := sc.GetConfig(); got.High != 200 || got.Low != 20 {
		t.Fatalf("unexpected config after update: %+v", got)
	}

	select {
	case <-notify:
	case <-time.After(time.Second):
		t.Fatal("expected a ping on the notify channel after Update")
	}
}

func TestSwitchCondition_UpdateNeverBlocksOnAFullChannel(t *testing.T) {
	sc := NewSwitchCondition(Watermark{High: 1, Low: 0})

	// Two updates with no reader draining the channel in between must not
	// block: the channel has capacity 1 and Update's send is non-blocking.
	sc.Update(Watermark{High: 2, Low: 0})
	sc.Update(Watermark{High: 3, Low: 0})

	if got := sc.GetConfig(); got.High != 3 {
		t.Fatalf("expected last update to win, got %+v", got)
	}
}
