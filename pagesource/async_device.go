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

package pagesource

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/TimeWtr/pagestream/errorx"
	"github.com/TimeWtr/pagestream/pagebuf"
	"github.com/TimeWtr/pagestream/waiter"
)

// ErrWouldBlock is returned by a NonBlockingReader when no bytes are
// available right now and the caller must wait for readiness instead of
// retrying immediately.
var ErrWouldBlock = errors.New("pagesource: read would block")

// NonBlockingReader is the capability an external device driver supplies
// to back an AsyncDevice source: Read either makes progress, returns
// io.EOF, or returns ErrWouldBlock. Readiness is signalled out of band by
// calling the Notify function passed to Ready.
type NonBlockingReader interface {
	Read(p []byte) (int, error)
	// Ready arranges for notify to be called (possibly from another
	// goroutine) once a subsequent Read is likely to make progress.
	// Implementations that have no better readiness signal may call
	// notify immediately, degrading to a retry loop.
	Ready(notify func())
}

// AsyncDevice wraps a NonBlockingReader, suspending readAsync callers on a
// waiter.Waiter until the device reports readiness, rather than blocking a
// goroutine on a syscall the way BufferedFile does. This is the
// non-blocking counterpart described in spec.md's PageSource table and is
// grounded on hayabusa-cloud-iox's ErrWouldBlock convention: a would-block
// result means "stop now and retry after readiness", not an error to
// surface to the consumer.
type AsyncDevice struct {
	r        NonBlockingReader
	pageSize int
	pool     *Pool

	mu     sync.Mutex
	closed bool
}

// NewAsyncDevice wraps r for asynchronous, paged reads of pageSize bytes
// at a time.
func NewAsyncDevice(r NonBlockingReader, pageSize int) (*AsyncDevice, *Source) {
	d := &AsyncDevice{r: r, pageSize: pageSize, pool: NewPool()}
	return d, d.source()
}

func (d *AsyncDevice) source() *Source {
	return &Source{
		ReadAsync:  d.readAsync,
		CloseAsync: d.closeAsync,
	}
}

// readAsync has the same append-or-fill contract as BufferedFile.readSync,
// but on ErrWouldBlock it registers on w and suspends instead of blocking,
// retrying once notified or returning early if ctx is cancelled.
func (d *AsyncDevice) readAsync(ctx context.Context, buffers *pagebuf.PageBuffers, dst []byte, w waiter.Waiter) (int, error) {
	for {
		n, err := d.tryRead(buffers, dst)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return n, err
		}

		id, notify := w.Register()
		d.r.Ready(func() { w.Notify(1) })

		select {
		case <-notify:
			w.Unregister(id)
		case <-ctx.Done():
			w.Unregister(id)
			return 0, errorx.NewCancellationError("readAsync")
		}
	}
}

func (d *AsyncDevice) tryRead(buffers *pagebuf.PageBuffers, dst []byte) (int, error) {
	if dst != nil {
		n, err := d.r.Read(dst)
		return d.classify(buffers, n, err, len(dst))
	}

	buf := d.pool.Alloc(d.pageSize)
	buf = buf[:d.pageSize]
	n, err := d.r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, ErrWouldBlock) {
		d.pool.Free(buf)
		return 0, errorx.NewIOError("read", err)
	}
	if errors.Is(err, ErrWouldBlock) {
		d.pool.Free(buf)
		return 0, ErrWouldBlock
	}

	if n > 0 {
		page := pagebuf.NewPage(buf[:n], d.pool.Free)
		page.CommitWritten(n)
		buffers.PushPage(page)
	} else {
		d.pool.Free(buf)
	}
	if errors.Is(err, io.EOF) || n < len(buf) {
		buffers.MarkEOF()
	}
	return n, nil
}

func (d *AsyncDevice) classify(buffers *pagebuf.PageBuffers, n int, err error, want int) (int, error) {
	switch {
	case err == nil:
		if n < want {
			buffers.MarkEOF()
		}
		return n, nil
	case errors.Is(err, io.EOF):
		buffers.MarkEOF()
		return n, nil
	case errors.Is(err, ErrWouldBlock):
		return 0, ErrWouldBlock
	default:
		return n, errorx.NewIOError("read", err)
	}
}

func (d *AsyncDevice) closeAsync(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if c, ok := d.r.(io.Closer); ok {
		return wrapIOErr("close", c.Close())
	}
	return nil
}
