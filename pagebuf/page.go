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

// Page is a fixed-capacity owned buffer a PageSource fills. It is the FIFO
// unit of buffered data inside PageBuffers.
//
// Invariant: 0 <= ConsumedTo <= WrittenTo <= Capacity. The readable region
// is data[ConsumedTo:WrittenTo]. A page may be handed out as a span more
// than once, provided the stream advances ConsumedTo before requesting
// another span.
type Page struct {
	data       []byte
	capacity   int
	consumedTo int
	writtenTo  int
	// pooled is true when the page's backing buffer came from a
	// pagesource allocator tier and should be returned there on Retire
	// rather than left for the GC.
	pooled bool
	onFree func([]byte)
}

// NewPage wraps a freshly obtained buffer of length capacity as an empty,
// unwritten page.
func NewPage(buf []byte, onFree func([]byte)) *Page {
	return &Page{
		data:     buf,
		capacity: cap(buf),
		pooled:   onFree != nil,
		onFree:   onFree,
	}
}

func (p *Page) Capacity() int { return p.capacity }

// WritableTail returns the slice a PageSource may write fresh bytes into.
func (p *Page) WritableTail() []byte {
	return p.data[p.writtenTo:p.capacity]
}

// CommitWritten records that n more bytes were written starting at the
// previous WrittenTo.
func (p *Page) CommitWritten(n int) {
	p.writtenTo += n
}

// ReadableSpan returns the span [ConsumedTo, WrittenTo) of this page.
func (p *Page) ReadableSpan() PageSpan {
	return NewSpan(p.data, p.consumedTo, p.writtenTo)
}

// MarkConsumed advances ConsumedTo by n, keeping it in sync with a span
// handed out by ReadableSpan that the stream has since advanced.
func (p *Page) MarkConsumed(n int) {
	p.consumedTo += n
}

// Exhausted reports whether every written byte has been consumed.
func (p *Page) Exhausted() bool {
	return p.consumedTo >= p.writtenTo
}

// Unconsumed returns the number of readable bytes still in the page.
func (p *Page) Unconsumed() int {
	return p.writtenTo - p.consumedTo
}

// Retire returns the page's backing buffer to its origin pool, if any.
// Called once by PageBuffers when the page is popped off the front after
// being fully consumed.
func (p *Page) Retire() {
	if p.onFree != nil {
		p.onFree(p.data[:0])
	}
	p.data = nil
}
