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
	"os"

	"golang.org/x/sys/unix"

	"github.com/TimeWtr/pagestream/errorx"
)

// MappedFile memory-maps a file and hands the whole mapping back as one
// fixed span; it never needs to refill, so only CloseSync and GetLen are
// populated in the returned Source — mirroring the teacher's
// poolx/memory_mapper.go wrapper around unix.Mmap/Munmap, narrowed here
// to the read-only mapping case this stream needs.
type MappedFile struct {
	data   []byte
	closed bool
}

// OpenMappedFile maps path starting at offset (which must be page-
// aligned) for up to size bytes (0 meaning "rest of file"). An empty file
// yields a zero-length mapping and a permanently-empty stream rather than
// an error, per spec.
func OpenMappedFile(path string, offset int64, size int) (data []byte, src *Source, err error) {
	if offset%int64(os.Getpagesize()) != 0 {
		return nil, nil, errorx.ErrInvalidOffset
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errorx.ErrFileNotFound
		}
		return nil, nil, errorx.NewIOError("open", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, errorx.NewIOError("stat", err)
	}

	remaining := st.Size() - offset
	if remaining < 0 {
		return nil, nil, errorx.ErrInvalidOffset
	}
	if size <= 0 || int64(size) > remaining {
		size = int(remaining)
	}

	if size == 0 {
		mf := &MappedFile{data: nil}
		return nil, mf.source(), nil
	}

	mapped, err := unix.Mmap(int(f.Fd()), offset, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errorx.NewIOError("mmap", err)
	}

	mf := &MappedFile{data: mapped}
	return mapped, mf.source(), nil
}

func (m *MappedFile) source() *Source {
	return &Source{
		CloseSync: m.closeSync,
		GetLen:    m.getLen,
	}
}

func (m *MappedFile) closeSync() error {
	if m.closed || m.data == nil {
		m.closed = true
		return nil
	}
	m.closed = true
	return wrapIOErr("munmap", unix.Munmap(m.data))
}

func (m *MappedFile) getLen() (uint64, bool) {
	return uint64(len(m.data)), true
}
