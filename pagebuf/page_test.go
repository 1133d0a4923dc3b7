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

func TestPage_WriteThenConsume(t *testing.T) {
	buf := make([]byte, 16)
	p := NewPage(buf, nil)

	tail := p.WritableTail()
	if len(tail) != 16 {
		t.Fatalf("expected writable tail of 16, got %d", len(tail))
	}
	n := copy(tail, "hello")
	p.CommitWritten(n)

	if p.Unconsumed() != 5 {
		t.Errorf("expected 5 unconsumed bytes, got %d", p.Unconsumed())
	}
	if p.Exhausted() {
		t.Error("page should not be exhausted yet")
	}

	span := p.ReadableSpan()
	if string(span.Bytes()) != "hello" {
		t.Errorf("expected %q, got %q", "hello", span.Bytes())
	}

	p.MarkConsumed(5)
	if !p.Exhausted() {
		t.Error("page should be exhausted after consuming all written bytes")
	}
	if p.Unconsumed() != 0 {
		t.Errorf("expected 0 unconsumed bytes, got %d", p.Unconsumed())
	}
}

func TestPage_RetireCallsOnFree(t *testing.T) {
	var freed []byte
	buf := make([]byte, 8)
	p := NewPage(buf, func(b []byte) { freed = b })
	p.CommitWritten(4)
	p.MarkConsumed(4)
	p.Retire()

	if freed == nil {
		t.Fatal("expected onFree to be invoked")
	}
	if len(freed) != 0 {
		t.Errorf("expected onFree buffer to be reset to zero length, got %d", len(freed))
	}
}

func TestPage_RetireWithoutOnFree(t *testing.T) {
	p := NewPage(make([]byte, 4), nil)
	p.Retire() // must not panic
}
