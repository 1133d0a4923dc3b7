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

// Package pagesource implements the PageSource capability table and its
// concrete variants (UnsafeMemory, MappedFile, BufferedFile, AsyncDevice),
// plus the raw OS/mmap plumbing and page-buffer recycling they share.
//
// This mirrors the teacher's poolx package: poolx held the only code that
// touched raw unix syscalls (mmap, slab chunks, sized pools); everything
// above it (core/) only ever called through small interfaces. pagesource
// plays the same role here.
package pagesource

import (
	"context"

	"github.com/TimeWtr/pagestream/errorx"
	"github.com/TimeWtr/pagestream/pagebuf"
	"github.com/TimeWtr/pagestream/waiter"
)

// Source is the polymorphic capability set through which InputStream
// pulls more bytes. Each field may be nil, meaning "not supported" for
// that source — spec.md's design note calls for a struct of function
// pointers rather than a Go interface precisely so the hot path (which
// never calls into Source at all) pays nothing for the capability and the
// slow path dispatches through a small closed table instead of a vtable.
type Source struct {
	// ReadSync pulls bytes synchronously. If dst is nil, the source must
	// append at least one fresh page to buffers (or call buffers.MarkEOF)
	// and return the number of bytes appended. If dst is non-nil, bytes
	// are written directly into dst (the readIntoEx bypass path); no page
	// is pushed, but buffers.MarkEOF is still called once EOF is observed.
	ReadSync func(buffers *pagebuf.PageBuffers, dst []byte) (n int, err error)

	// ReadAsync has the same contract as ReadSync but may suspend on w
	// until data is available or ctx is done.
	ReadAsync func(ctx context.Context, buffers *pagebuf.PageBuffers, dst []byte, w waiter.Waiter) (n int, err error)

	// CloseSync releases the device synchronously.
	CloseSync func() error

	// CloseAsync releases the device, suspending on ctx if necessary.
	CloseAsync func(ctx context.Context) error

	// GetLen returns the total remaining readable byte count from the
	// current position, if known.
	GetLen func() (uint64, bool)
}

// PreferredClose runs CloseAsync if present, else CloseSync, matching the
// spec's "preference order at close: async > sync".
func (s *Source) PreferredClose(ctx context.Context) error {
	switch {
	case s.CloseAsync != nil:
		return s.CloseAsync(ctx)
	case s.CloseSync != nil:
		return s.CloseSync()
	default:
		return nil
	}
}

// wrapIOErr is the shared helper every variant uses to turn a raw OS/mmap
// error into the package's *errorx.IOError, keeping the error surface
// uniform across variants the way the teacher's errorx sentinels do
// across core/.
func wrapIOErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return errorx.NewIOError(op, err)
}
