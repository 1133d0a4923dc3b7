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
	"runtime"
	"sync"
)

// noCopy makes `go vet`'s copylocks check flag any attempt to copy a
// Handle by value, the same convention sync.WaitGroup and friends use to
// enforce move-only ownership in a language with no borrow checker.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is a move-only owner of an InputStream: closing it releases the
// stream's page source. A Handle left unclosed is closed on garbage
// collection via a finalizer as a last-resort safety net — callers
// should still call Close explicitly, since finalizer timing is
// unspecified.
type Handle struct {
	_ noCopy

	once   sync.Once
	stream *InputStream
}

// NewHandle takes ownership of s.
func NewHandle(s *InputStream) *Handle {
	h := &Handle{stream: s}
	runtime.SetFinalizer(h, func(h *Handle) {
		h.stream.CloseDetached()
	})
	return h
}

// Stream returns the owned InputStream. The handle remains the owner;
// callers must not retain the stream past the handle's Close.
func (h *Handle) Stream() *InputStream {
	return h.stream
}

// Close releases the stream. wait selects between the blocking and
// fire-and-forget close policies described in the data model. Safe to
// call more than once; only the first call has effect.
func (h *Handle) Close(wait bool) error {
	var err error
	h.once.Do(func() {
		runtime.SetFinalizer(h, nil)
		if wait {
			err = h.stream.Close()
		} else {
			h.stream.CloseDetached()
		}
	})
	return err
}
