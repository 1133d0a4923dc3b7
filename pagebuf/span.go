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

// Package pagebuf holds the page/buffer engine: PageSpan, Page and the
// PageBuffers FIFO queue that InputStream drains. This mirrors the
// teacher's core/component split — the small, allocation-free value types
// live in their own package so the orchestrator (package pagestream) never
// has to reach into their internals.
package pagebuf

// PageSpan is a contiguous, non-owning window of readable bytes. It never
// allocates and never copies; it is a pair of offsets into whatever byte
// slice currently backs the stream's front page or immutable memory.
//
// Invariant: start <= end. "Has runway" (HasRunway) is the single
// hot-path predicate and must stay one comparison of two machine words.
type PageSpan struct {
	buf        []byte
	start, end int
}

// NewSpan wraps buf[start:end] as a PageSpan. Callers that already hold a
// slice (unsafe memory, a mapped file) can build a span directly.
func NewSpan(buf []byte, start, end int) PageSpan {
	return PageSpan{buf: buf, start: start, end: end}
}

// HasRunway reports whether at least one byte is immediately consumable.
func (s PageSpan) HasRunway() bool {
	return s.start < s.end
}

// Len returns the number of bytes immediately consumable from this span.
func (s PageSpan) Len() int {
	return s.end - s.start
}

// Empty reports whether the span has no runway.
func (s PageSpan) Empty() bool {
	return s.start == s.end
}

// ByteAt returns the byte at offset from the span's start. Callers must
// ensure offset < s.Len(); this is the within-span peekAt primitive and
// performs no bounds smoothing.
func (s PageSpan) ByteAt(offset int) byte {
	return s.buf[s.start+offset]
}

// Bytes returns the span's current readable window without copying.
func (s PageSpan) Bytes() []byte {
	return s.buf[s.start:s.end]
}

// AdvanceBy moves the span's start forward by n bytes. The caller is
// responsible for ensuring n <= s.Len().
func (s *PageSpan) AdvanceBy(n int) {
	s.start += n
}
