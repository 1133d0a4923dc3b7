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

import "container/list"

// PageBuffers is a FIFO queue of Pages plus an EOF flag and a running
// total of buffered bytes. It owns allocation bookkeeping (via the
// onFree callback each Page carries) but never touches a PageSource
// itself — that wiring belongs to the orchestrator in package pagestream.
//
// The queue is backed by container/list the same way the teacher's
// BufferQueue (core/queue.go) is: a plain doubly linked list protected by
// the single-owner discipline of InputStream, not a mutex — InputStream
// is documented as not thread-safe, so no locking is needed here.
type PageBuffers struct {
	pageSize           int
	q                  *list.List
	totalBufferedBytes int
	eofReached         bool
	backpressure       BackpressurePolicy
}

// New creates an empty PageBuffers with the given allocation granule.
// policy may be nil, in which case pushes are never blocked by watermark.
func New(pageSize int, policy BackpressurePolicy) *PageBuffers {
	return &PageBuffers{
		pageSize:     pageSize,
		q:            list.New(),
		backpressure: policy,
	}
}

func (b *PageBuffers) PageSize() int { return b.pageSize }

// TotalBufferedBytes returns the sum of readable regions across every
// queued page (front page included).
func (b *PageBuffers) TotalBufferedBytes() int { return b.totalBufferedBytes }

// EOFReached reports whether MarkEOF has been called.
func (b *PageBuffers) EOFReached() bool { return b.eofReached }

// Len returns the number of queued pages.
func (b *PageBuffers) Len() int { return b.q.Len() }

// ShouldPauseRefill reports whether the configured backpressure policy
// wants refills paused given the current buffered-byte total. With no
// policy configured this is always false.
func (b *PageBuffers) ShouldPauseRefill() bool {
	if b.backpressure == nil {
		return false
	}
	return b.backpressure.ShouldPause(b.totalBufferedBytes)
}

// PushPage enqueues an already-filled page (the PageSource wrote into its
// WritableTail and called CommitWritten before handing it here).
//
// Invariant: once EOFReached is set, no further push is legal — the
// caller (a PageSource wrapper) must check EOFReached first.
func (b *PageBuffers) PushPage(p *Page) {
	if b.eofReached {
		panic("pagebuf: push after EOF")
	}
	b.q.PushBack(p)
	b.totalBufferedBytes += p.Unconsumed()
}

// Front returns the page at the head of the queue, or nil if empty.
func (b *PageBuffers) Front() *Page {
	e := b.q.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Page)
}

// PopFront retires and removes the head page. Callers must only do this
// once the page is fully consumed.
func (b *PageBuffers) PopFront() {
	e := b.q.Front()
	if e == nil {
		return
	}
	p := e.Value.(*Page)
	b.totalBufferedBytes -= p.Unconsumed()
	b.q.Remove(e)
	p.Retire()
}

// ConsumeFromFront advances the front page's consumed cursor by n bytes,
// keeping the buffered-byte total in sync. The stream calls this every
// time it advances a span derived from the front page, so the invariant
// totalBufferedBytes == Σ page.Unconsumed() holds between operations.
func (b *PageBuffers) ConsumeFromFront(n int) {
	f := b.Front()
	if f == nil {
		return
	}
	f.MarkConsumed(n)
	b.totalBufferedBytes -= n
}

// ReadableSpanOfFront returns the front page's readable span, or an empty
// span if the queue is drained.
func (b *PageBuffers) ReadableSpanOfFront() PageSpan {
	f := b.Front()
	if f == nil {
		return PageSpan{}
	}
	return f.ReadableSpan()
}

// AdvanceToNextReadableSpan pops the (assumed fully-consumed) front page
// and returns the new front's readable region, or an empty span if the
// queue is now drained. Combines PopFront+ReadableSpanOfFront for the
// stream's flip operation.
func (b *PageBuffers) AdvanceToNextReadableSpan() PageSpan {
	b.PopFront()
	return b.ReadableSpanOfFront()
}

// MarkEOF sets the terminal flag. Already-queued pages remain consumable;
// no further pushes are permitted afterward.
func (b *PageBuffers) MarkEOF() {
	b.eofReached = true
}

// DrainBytesAfterFront sums unconsumed bytes across every page after the
// current front — used by totalUnconsumedBytes when the caller needs the
// full buffered runway, not just the front page's.
func (b *PageBuffers) DrainBytesAfterFront() int {
	total := 0
	e := b.q.Front()
	if e == nil {
		return 0
	}
	for e = e.Next(); e != nil; e = e.Next() {
		total += e.Value.(*Page).Unconsumed()
	}
	return total
}

// HasMoreThanFront reports whether a second page is already queued behind
// the current front — the condition ReadableNow checks to tell whether
// queued data remains once the front page is exhausted.
func (b *PageBuffers) HasMoreThanFront() bool {
	f := b.q.Front()
	return f != nil && f.Next() != nil
}
