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
	"io"
	"os"

	"github.com/TimeWtr/pagestream/errorx"
	"github.com/TimeWtr/pagestream/pagebuf"
)

// BufferedFile reads an *os.File synchronously in pageSize chunks,
// allocating fresh pages from a Pool (pagepool.go) exactly the way the
// teacher's DoubleBuffer pulled small/medium/large buffers from its
// LifeCycleManager before copying write data into them.
type BufferedFile struct {
	f        *os.File
	pageSize int
	pool     *Pool
	closed   bool
}

// OpenBufferedFile opens path at offset (0 meaning start) for synchronous,
// paged reads of pageSize bytes at a time.
func OpenBufferedFile(path string, offset int64, pageSize int) (*BufferedFile, *Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errorx.ErrFileNotFound
		}
		return nil, nil, errorx.NewIOError("open", err)
	}

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, nil, errorx.NewIOError("seek", err)
		}
	}

	bf := &BufferedFile{f: f, pageSize: pageSize, pool: NewPool()}
	return bf, bf.source(), nil
}

func (b *BufferedFile) source() *Source {
	return &Source{
		ReadSync:  b.readSync,
		CloseSync: b.closeSync,
		GetLen:    b.getLen,
	}
}

// readSync implements the PageSource contract: dst==nil means "append at
// least one fresh page to buffers"; dst!=nil means "read directly into
// the caller's buffer", bypassing page allocation entirely (the
// readIntoEx fast path).
func (b *BufferedFile) readSync(buffers *pagebuf.PageBuffers, dst []byte) (int, error) {
	if dst != nil {
		n, err := b.f.Read(dst)
		if err != nil {
			if err == io.EOF {
				buffers.MarkEOF()
				return n, nil
			}
			return n, errorx.NewIOError("read", err)
		}
		if n < len(dst) {
			buffers.MarkEOF()
		}
		return n, nil
	}

	buf := b.pool.Alloc(b.pageSize)
	buf = buf[:b.pageSize]
	n, err := b.f.Read(buf)
	if n == 0 && err != nil {
		b.pool.Free(buf[:0])
		if err == io.EOF {
			buffers.MarkEOF()
			return 0, nil
		}
		return 0, errorx.NewIOError("read", err)
	}

	page := pagebuf.NewPage(buf[:n], b.pool.Free)
	page.CommitWritten(n)
	buffers.PushPage(page)

	if n < len(buf) {
		buffers.MarkEOF()
	}
	return n, nil
}

func (b *BufferedFile) closeSync() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return wrapIOErr("close", b.f.Close())
}

func (b *BufferedFile) getLen() (uint64, bool) {
	pos, err := b.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	st, err := b.f.Stat()
	if err != nil {
		return 0, false
	}
	remaining := st.Size() - pos
	if remaining < 0 {
		remaining = 0
	}
	return uint64(remaining), true
}
