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

package pagestream

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/TimeWtr/pagestream/config"
	"github.com/TimeWtr/pagestream/errorx"
	"github.com/TimeWtr/pagestream/metrics"
	"github.com/TimeWtr/pagestream/pagebuf"
	"github.com/TimeWtr/pagestream/pagesource"
	"github.com/TimeWtr/pagestream/waiter"
)

// streamState is the Open -> Draining -> Closed state machine described
// in the data model: Draining means the source has disconnected but
// buffered pages are still being drained; Closed means both the source
// and the current span are empty.
type streamState int32

const (
	stateOpen streamState = iota
	stateDraining
	stateClosed
)

// Options configures an InputStream at construction time, mirroring the
// teacher's `Options func(*DoubleBuffer) error` pattern (double_buffer.go).
type Options func(*InputStream) error

// WithMetrics attaches a batch metrics collector. Every read, refill,
// wait and close event on the stream is reported through it.
func WithMetrics(mc metrics.BatchCollector) Options {
	return func(s *InputStream) error {
		s.mc = mc
		return nil
	}
}

// WithWaiter supplies the suspend-until-notified capability an
// AsyncDevice-backed stream suspends readAsync on. Synchronous streams
// never consult it.
func WithWaiter(w waiter.Waiter) Options {
	return func(s *InputStream) error {
		s.w = w
		return nil
	}
}

// WithBackpressure installs a BackpressurePolicy on the stream's page
// queue, pausing refills once the configured high watermark is reached.
func WithBackpressure(policy pagebuf.BackpressurePolicy) Options {
	return func(s *InputStream) error {
		s.pendingBackpressure = policy
		return nil
	}
}

// InputStream is the consumer-facing object: it holds the current
// PageSpan, the optional PageBuffers queue behind it, the optional
// PageSource used to refill that queue, the absolute position of the
// span's end, and bookkeeping for WithReadableRange scoping.
//
// Not safe for concurrent use — exactly one goroutine may call its
// methods at a time.
type InputStream struct {
	source     *pagesource.Source
	buffers    *pagebuf.PageBuffers
	span       pagebuf.PageSpan
	spanEndPos uint64
	state      streamState

	w  waiter.Waiter
	mc metrics.BatchCollector

	pendingBackpressure pagebuf.BackpressurePolicy

	// rangeLimited/rangeLimit implement WithReadableRange: while active,
	// readable()/readable(n) report false once pos() would cross
	// rangeLimit, even though more data may already be buffered — the
	// scope only ever shrinks, never grows, the visible window.
	rangeLimited bool
	rangeLimit   uint64

	// scratch is the reused small buffer for read(n) requests that fall
	// outside the current span but at or below config.ZeroCopyThreshold.
	scratch []byte
}

// UnsafeMemory returns a zero-copy stream over caller-owned memory. The
// caller guarantees data's lifetime exceeds the stream's.
func UnsafeMemory(data []byte, opts ...Options) (*InputStream, error) {
	s, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	s.source = pagesource.NewUnsafeMemory()
	s.span = pagebuf.NewSpan(data, 0, len(data))
	s.spanEndPos = uint64(len(data))
	return s, nil
}

// MemoryInput returns a stream over a private copy of data, split into
// owned pages of pageSize granularity and immediately marked EOF.
func MemoryInput(data []byte, pageSize int, opts ...Options) (*InputStream, error) {
	s, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	s.buffers = pagebuf.New(pageSize, s.pendingBackpressure)

	owned := make([]byte, len(data))
	copy(owned, data)
	for off := 0; off < len(owned); off += pageSize {
		end := off + pageSize
		if end > len(owned) {
			end = len(owned)
		}
		page := pagebuf.NewPage(owned[off:end:end], nil)
		page.CommitWritten(end - off)
		s.buffers.PushPage(page)
	}
	s.buffers.MarkEOF()

	s.span = s.buffers.ReadableSpanOfFront()
	s.spanEndPos = uint64(s.span.Len())
	return s, nil
}

// MappedFileInput memory-maps path and returns a stream over the mapping
// directly; offset must be page-aligned. An empty file (or an offset at
// EOF) yields a permanently-empty stream rather than an error.
func MappedFileInput(path string, offset int64, size int, opts ...Options) (*InputStream, error) {
	s, err := newBase(opts)
	if err != nil {
		return nil, err
	}

	data, src, err := pagesource.OpenMappedFile(path, offset, size)
	if err != nil {
		return nil, err
	}
	s.source = src
	s.span = pagebuf.NewSpan(data, 0, len(data))
	s.spanEndPos = uint64(len(data))
	return s, nil
}

// FileInput returns a stream that reads path synchronously through the
// OS, in pageSize chunks.
func FileInput(path string, offset int64, pageSize int, opts ...Options) (*InputStream, error) {
	s, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	_, src, err := pagesource.OpenBufferedFile(path, offset, pageSize)
	if err != nil {
		return nil, err
	}
	s.source = src
	s.buffers = pagebuf.New(pageSize, s.pendingBackpressure)
	return s, nil
}

// AsyncInput wraps an externally-supplied non-blocking read capability,
// suspending readable()/readIntoEx on w until the device reports
// readiness instead of blocking the calling goroutine.
func AsyncInput(device pagesource.NonBlockingReader, pageSize int, w waiter.Waiter, opts ...Options) (*InputStream, error) {
	s, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	s.w = w
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	_, src := pagesource.NewAsyncDevice(device, pageSize)
	s.source = src
	s.buffers = pagebuf.New(pageSize, s.pendingBackpressure)
	return s, nil
}

func newBase(opts []Options) (*InputStream, error) {
	s := &InputStream{state: stateOpen}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Readable reports whether at least one more byte can be consumed,
// refilling from the source (blocking or suspending on ctx) if the
// current span and queued pages are both exhausted.
//
// Hot path: span.HasRunway() is a single comparison; everything past it
// — flip, refill, source disconnection — is the cold path below.
func (s *InputStream) Readable(ctx context.Context) (bool, error) {
	if s.span.HasRunway() {
		return s.withinRange(), nil
	}
	return s.readableSlow(ctx)
}

func (s *InputStream) readableSlow(ctx context.Context) (bool, error) {
	s.syncSpanWithFront()
	if s.span.HasRunway() {
		return s.withinRange(), nil
	}

	if !s.hasReadCapability() {
		return false, nil
	}

	n, err := s.doRefill(ctx)
	if err != nil {
		return false, err
	}
	if s.buffers.EOFReached() {
		s.disconnectSource()
	}
	if n > 0 {
		s.syncSpanWithFront()
		return s.span.HasRunway() && s.withinRange(), nil
	}

	s.checkDraining()
	return false, nil
}

// ReadableN guarantees that, once true, the next n bytes may be consumed
// (possibly straddling pages) without further device interaction.
func (s *InputStream) ReadableN(ctx context.Context, n int) (bool, error) {
	if n <= 0 {
		return true, nil
	}

	s.syncSpanWithFront()

	runway := s.totalUnconsumedBytesRaw()
	for runway < n {
		if !s.hasReadCapability() {
			break
		}
		produced, err := s.doRefill(ctx)
		if err != nil {
			return false, err
		}
		if s.buffers.EOFReached() {
			s.disconnectSource()
		}
		if produced == 0 {
			break
		}
		runway += produced
	}

	// Pages pushed by the refill loop onto an empty queue have never been
	// adopted as the span; do that now so the caller's first read after a
	// true return stays on the hot path.
	s.syncSpanWithFront()

	s.checkDraining()

	ok := runway >= n
	if ok && s.rangeLimited {
		avail := s.rangeLimit - s.Pos()
		ok = uint64(n) <= avail
	}
	return ok, nil
}

// ReadableNow is the non-blocking truthiness check: it never invokes the
// source, only inspecting the span and already-queued pages.
func (s *InputStream) ReadableNow() bool {
	if s.span.HasRunway() {
		return s.withinRange()
	}
	if s.buffers == nil {
		return false
	}
	f := s.buffers.Front()
	if f == nil {
		return false
	}
	return (!f.Exhausted() || s.buffers.HasMoreThanFront()) && s.withinRange()
}

// TimeoutToNextByte returns true immediately if ReadableNow(), else races
// a refill against deadline, cancelling the refill on timeout. A timeout
// is an expected outcome, not an error: it reports false, and the stream
// may be re-read (a page populated before the cancellation stays queued).
func (s *InputStream) TimeoutToNextByte(ctx context.Context, deadline time.Time) (bool, error) {
	if s.ReadableNow() {
		return true, nil
	}
	cctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	ok, err := s.Readable(cctx)
	if err != nil {
		var ce *errorx.CancellationError
		if errors.As(err, &ce) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Peek returns the next byte without consuming it. Requires a preceding
// true Readable call; it is a programmer error otherwise.
func (s *InputStream) Peek() byte {
	if s.span.Empty() {
		s.syncSpanWithFront()
	}
	if s.span.Empty() {
		errorx.Fault("peek called without a preceding true readable()")
		return 0
	}
	return s.span.ByteAt(0)
}

// Read returns the next byte and consumes it.
func (s *InputStream) Read() byte {
	b := s.Peek()
	s.advanceSpan(1)
	s.recordRead(1)
	return b
}

// Advance skips one byte without returning it.
func (s *InputStream) Advance() {
	s.AdvanceN(1)
}

// AdvanceN skips n bytes, flipping pages as needed. It is a programmer
// error to advance past the consumable remainder.
func (s *InputStream) AdvanceN(n int) {
	remaining := n
	for remaining > 0 {
		if s.span.Empty() {
			s.syncSpanWithFront()
		}
		if s.span.Empty() {
			errorx.Fault("advance beyond readable runway")
			return
		}
		take := remaining
		if take > s.span.Len() {
			take = s.span.Len()
		}
		s.advanceSpan(take)
		remaining -= take
	}
}

// PeekAt returns the byte at offset k from the current position, within
// the current span only — no cross-page lookahead. Fails with a
// programmer error if k is outside the span.
func (s *InputStream) PeekAt(k int) byte {
	if k < 0 || k >= s.span.Len() {
		errorx.Fault("peekAt beyond the current span")
		return 0
	}
	return s.span.ByteAt(k)
}

// LookAheadMatch compares pattern against the next len(pattern) bytes.
// Presupposes the caller has already ensured ReadableN(len(pattern)) and
// that the window fits in the current span.
func (s *InputStream) LookAheadMatch(pattern []byte) bool {
	for i, want := range pattern {
		if s.PeekAt(i) != want {
			return false
		}
	}
	return true
}

// ReadIntoEx drains the current span, then queued pages, then the source
// directly into dst, returning the number of bytes actually produced.
// count < len(dst) iff EOF was reached.
func (s *InputStream) ReadIntoEx(ctx context.Context, dst []byte) (int, error) {
	total := 0

	if s.span.HasRunway() {
		n := copy(dst, s.span.Bytes())
		s.advanceSpan(n)
		total += n
	}

	for total < len(dst) && s.buffers != nil {
		if s.span.Empty() {
			s.syncSpanWithFront()
			if !s.span.HasRunway() {
				break
			}
		}
		n := copy(dst[total:], s.span.Bytes())
		s.advanceSpan(n)
		total += n
	}

	for total < len(dst) && s.hasReadCapability() {
		n, err := s.readDirect(ctx, dst[total:])
		if err != nil {
			s.recordRead(total)
			return total, err
		}
		if s.buffers != nil && s.buffers.EOFReached() {
			s.disconnectSource()
		}
		total += n
		s.spanEndPos += uint64(n)
		if n == 0 {
			break
		}
	}

	s.checkDraining()
	s.recordRead(total)
	return total, nil
}

// ReadInto reports whether dst was filled completely.
func (s *InputStream) ReadInto(ctx context.Context, dst []byte) (bool, error) {
	n, err := s.ReadIntoEx(ctx, dst)
	return n == len(dst), err
}

// ReadN returns a view of the next n bytes: a zero-copy slice into the
// current span if it already has n bytes of runway, or a copy into a
// temporary buffer otherwise. The view is valid only until the next
// mutating call. It is a programmer error to request more bytes than
// ReadableN(n) has verified are consumable.
func (s *InputStream) ReadN(ctx context.Context, n int) ([]byte, error) {
	if n < 0 {
		errorx.Fault("read(n) with negative n")
		return nil, nil
	}
	if n == 0 {
		return nil, nil
	}
	if s.span.Len() >= n {
		view := s.span.Bytes()[:n]
		s.advanceSpan(n)
		s.recordRead(n)
		return view, nil
	}

	buf := s.scratchBuffer(n)
	got, err := s.ReadIntoEx(ctx, buf)
	if err != nil {
		return buf[:got], err
	}
	if got < n {
		errorx.Fault("read(n) exceeds the consumable remainder")
		return buf[:got], nil
	}
	return buf[:got], nil
}

func (s *InputStream) scratchBuffer(n int) []byte {
	if n <= config.ZeroCopyThreshold {
		if cap(s.scratch) < n {
			s.scratch = make([]byte, config.ZeroCopyThreshold)
		}
		return s.scratch[:n]
	}
	return make([]byte, n)
}

// Next reads the next byte, reporting false at EOF instead of faulting.
func (s *InputStream) Next(ctx context.Context) (byte, bool, error) {
	ok, err := s.Readable(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	return s.Read(), true, nil
}

// Pos returns the logical byte index of the next byte to be read.
func (s *InputStream) Pos() uint64 {
	return s.spanEndPos - uint64(s.span.Len())
}

// Len returns the total remaining readable byte count, if known.
func (s *InputStream) Len() (uint64, bool) {
	if s.buffers == nil {
		// Immutable-span streams: the span itself is the whole remainder.
		return uint64(s.span.Len()), true
	}
	if s.source == nil {
		return uint64(s.totalUnconsumedBytesRaw()), true
	}
	if s.source.GetLen == nil {
		return 0, false
	}
	remaining, ok := s.source.GetLen()
	if !ok {
		return 0, false
	}
	return remaining + uint64(s.totalUnconsumedBytesRaw()), true
}

// TotalUnconsumedBytes returns the number of bytes producible without
// invoking the source: the current span plus every page queued behind
// it.
func (s *InputStream) TotalUnconsumedBytes() int {
	return s.totalUnconsumedBytesRaw()
}

// ResetBuffers discards every queued page and empties the span, releasing
// buffered memory on a stream whose source is already disconnected. The
// position is unaffected: the dropped bytes count as never produced. It is
// a programmer error to reset a stream that still has a source.
func (s *InputStream) ResetBuffers() {
	if s.source != nil {
		errorx.Fault("resetBuffers on a stream that has a source")
		return
	}
	if s.buffers != nil {
		for s.buffers.Len() > 0 {
			s.buffers.PopFront()
		}
	}
	s.spanEndPos = s.Pos()
	s.span = pagebuf.PageSpan{}
	s.checkDraining()
}

func (s *InputStream) totalUnconsumedBytesRaw() int {
	total := s.span.Len()
	if s.buffers != nil {
		total += s.buffers.DrainBytesAfterFront()
	}
	return total
}

// Close performs a synchronous close, waiting for the source's preferred
// close operation (async over sync) to complete. Idempotent.
func (s *InputStream) Close() error {
	return s.closeImpl(context.Background(), true)
}

// CloseDetached fires the close and does not wait for it; any resulting
// error is logged rather than returned, matching the spec's "fire-and-
// forget with an error-reporting mechanism" policy.
func (s *InputStream) CloseDetached() {
	if err := s.closeImpl(context.Background(), false); err != nil {
		log.Printf("pagestream: detached close error: %v", err)
	}
}

// CloseAsync always awaits the resulting close future.
func (s *InputStream) CloseAsync(ctx context.Context) error {
	return s.closeImpl(ctx, true)
}

func (s *InputStream) closeImpl(ctx context.Context, wait bool) error {
	if s.state == stateClosed && s.source == nil {
		return nil
	}

	start := time.Now()
	var err error
	if s.source != nil {
		src := s.source
		if wait {
			err = src.PreferredClose(ctx)
		} else {
			go func() {
				if e := src.PreferredClose(context.Background()); e != nil {
					log.Printf("pagestream: detached close error: %v", e)
				}
			}()
		}
	}

	s.source = nil
	s.span = pagebuf.PageSpan{}
	s.state = stateClosed

	if s.mc != nil {
		s.mc.RecordClose(time.Since(start).Microseconds(), err)
	}
	return err
}

// flip retires the (assumed fully-consumed) front page and adopts the
// next page's readable region as the current span.
func (s *InputStream) flip() {
	newSpan := s.buffers.AdvanceToNextReadableSpan()
	s.spanEndPos += uint64(newSpan.Len())
	s.span = newSpan
	s.checkDraining()
}

// syncSpanWithFront re-aligns an empty span with the page queue: a spent
// front page is retired (its successor, if any, becomes the span), and a
// front page that was refilled onto an empty queue and never handed out
// is adopted. The span mirrors the front page's consumed cursor, so an
// empty span with a non-exhausted front can only mean the latter.
func (s *InputStream) syncSpanWithFront() {
	if s.buffers == nil || !s.span.Empty() {
		return
	}
	f := s.buffers.Front()
	if f == nil {
		return
	}
	if f.Exhausted() {
		s.flip()
		return
	}
	newSpan := s.buffers.ReadableSpanOfFront()
	s.spanEndPos += uint64(newSpan.Len())
	s.span = newSpan
}

// advanceSpan moves the span forward by n bytes and, if the span is
// page-backed, keeps the front page's consumed cursor and the queue's
// buffered-byte total in sync.
func (s *InputStream) advanceSpan(n int) {
	s.span.AdvanceBy(n)
	if s.buffers != nil {
		s.buffers.ConsumeFromFront(n)
	}
}

func (s *InputStream) hasReadCapability() bool {
	return s.source != nil && (s.source.ReadSync != nil || s.source.ReadAsync != nil)
}

// doRefill invokes the source's read capability once, dispatching to the
// async or sync slot depending on which is populated — the same refill
// algorithm either blocks (sync) or suspends on s.w (async); only the
// awaiter differs.
func (s *InputStream) doRefill(ctx context.Context) (int, error) {
	if s.buffers != nil && s.buffers.ShouldPauseRefill() {
		s.recordRefill(metrics.RefillPaused, 0, 0)
		return 0, nil
	}

	start := time.Now()
	var n int
	var err error
	switch {
	case s.source.ReadAsync != nil:
		if s.mc != nil {
			s.mc.ObserveWaiter(metrics.WaitBegin)
		}
		n, err = s.source.ReadAsync(ctx, s.buffers, nil, s.w)
		if s.mc != nil {
			s.mc.ObserveWaiter(metrics.WaitEnd)
		}
	case s.source.ReadSync != nil:
		n, err = s.source.ReadSync(s.buffers, nil)
	default:
		return 0, nil
	}

	latency := time.Since(start).Microseconds()
	if err != nil {
		return n, err
	}
	if s.buffers.EOFReached() {
		s.recordRefill(metrics.RefillEOF, int64(n), latency)
	} else {
		s.recordRefill(metrics.RefillSuccess, int64(n), latency)
	}
	return n, nil
}

func (s *InputStream) readDirect(ctx context.Context, dst []byte) (int, error) {
	switch {
	case s.source.ReadAsync != nil:
		return s.source.ReadAsync(ctx, s.buffers, dst, s.w)
	case s.source.ReadSync != nil:
		return s.source.ReadSync(s.buffers, dst)
	default:
		return 0, nil
	}
}

func (s *InputStream) disconnectSource() {
	s.source = nil
	if s.state == stateOpen {
		s.state = stateDraining
	}
	s.checkDraining()
}

func (s *InputStream) checkDraining() {
	if s.state != stateDraining {
		return
	}
	if s.span.Empty() && (s.buffers == nil || s.buffers.Len() == 0) {
		s.state = stateClosed
	}
}

// withinRange reports whether the current position is still inside an
// active WithReadableRange budget; always true when no scope is active.
func (s *InputStream) withinRange() bool {
	if !s.rangeLimited {
		return true
	}
	return s.Pos() < s.rangeLimit
}

func (s *InputStream) recordRead(n int) {
	if s.mc != nil {
		s.mc.RecordRead(1, int64(n), nil)
	}
}

func (s *InputStream) recordRefill(status metrics.RefillStatus, bytes int64, latencyMicros int64) {
	if s.mc != nil {
		s.mc.RecordRefill(status, bytes, latencyMicros)
	}
}
