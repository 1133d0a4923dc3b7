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

import "testing"

func TestPageSpan_RunwayAndLen(t *testing.T) {
	buf := []byte("hello world")
	s := NewSpan(buf, 0, 5)

	if !s.HasRunway() {
		t.Fatal("expected runway")
	}
	if s.Len() != 5 {
		t.Errorf("expected len 5, got %d", s.Len())
	}
	if s.Empty() {
		t.Error("span should not be empty")
	}
	if s.ByteAt(0) != 'h' {
		t.Errorf("expected 'h', got %q", s.ByteAt(0))
	}
	if string(s.Bytes()) != "hello" {
		t.Errorf("expected %q, got %q", "hello", s.Bytes())
	}
}

func TestPageSpan_AdvanceBy(t *testing.T) {
	buf := []byte("hello world")
	s := NewSpan(buf, 0, len(buf))

	s.AdvanceBy(6)
	if s.Len() != 5 {
		t.Errorf("expected len 5 after advance, got %d", s.Len())
	}
	if string(s.Bytes()) != "world" {
		t.Errorf("expected %q, got %q", "world", s.Bytes())
	}

	s.AdvanceBy(5)
	if !s.Empty() {
		t.Error("expected span to be empty after consuming all bytes")
	}
	if s.HasRunway() {
		t.Error("expected no runway once fully consumed")
	}
}

func TestPageSpan_ZeroValueIsEmpty(t *testing.T) {
	var s PageSpan
	if s.HasRunway() {
		t.Error("zero-value span should have no runway")
	}
	if !s.Empty() {
		t.Error("zero-value span should be empty")
	}
	if s.Len() != 0 {
		t.Errorf("zero-value span should have len 0, got %d", s.Len())
	}
}
