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
	"sync"

	"github.com/TimeWtr/pagestream/config"
)

// Pool recycles page-sized byte buffers for BufferedFile/AsyncDevice
// refills. It is adapted from the teacher's LifeCycleManager
// (life_cycle.go): that manager kept three tiers (small via sync.Pool,
// medium tracked by a TTL validity window, big tracked by refcount)
// because the write path handed out the *same* underlying buffer to
// multiple potential zero-copy readers and needed to know when reuse was
// still safe.
//
// The read-side page pool has no such aliasing hazard: a page is only
// ever returned to the pool by PageBuffers.PopFront, which the
// single-owner stream only calls once every span derived from that page
// has already been advanced past. So the TTL/medium tier collapses away
// here; what's left is exactly the small/big split — small pages recycle
// through sync.Pool, oversized pages recycle through the mmap-backed
// slab allocator (slab.go) so their memory is released to the OS instead
// of sitting in the Go heap.
type Pool struct {
	mu    sync.Mutex
	small map[int]*sync.Pool
	slab  *slabAllocator
}

func NewPool() *Pool {
	return &Pool{
		small: make(map[int]*sync.Pool),
		slab:  newSlabAllocator(),
	}
}

// Alloc returns a zero-length buffer with capacity size, reused from the
// appropriate tier when possible.
func (p *Pool) Alloc(size int) []byte {
	if size > config.SmallPageSize {
		buf, err := p.slab.alloc(size)
		if err == nil {
			return buf[:0]
		}
		// Fall through to a plain heap allocation if the slab allocator
		// couldn't satisfy this size (the anonymous chunk mmap failed).
		return make([]byte, 0, size)
	}

	sp := p.smallPoolFor(size)
	buf, _ := sp.Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, 0, size)
	}
	return buf[:0]
}

// Free returns buf to its origin tier. cap(buf) determines the tier the
// same way Alloc chose it, so callers must not resize a buffer between
// Alloc and Free.
func (p *Pool) Free(buf []byte) {
	if buf == nil {
		return
	}
	c := cap(buf)
	if c > config.SmallPageSize {
		p.slab.free(buf)
		return
	}
	p.smallPoolFor(c).Put(buf[:0]) //nolint:staticcheck // pool stores []byte by design
}

func (p *Pool) smallPoolFor(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.small[size]
	if !ok {
		capturedSize := size
		sp = &sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, capturedSize)
			},
		}
		p.small[size] = sp
	}
	return sp
}

// Compact releases any slab chunks that are entirely free. This is the
// explicit, caller-invoked analogue of the teacher's background
// LifeCycleManager.Cleanup(): spec.md's single-owner/no-background-
// mutation model rules out a ticker goroutine touching the stream's
// memory concurrently, so callers that want to reclaim idle slab chunks
// must call Compact themselves between reads.
func (p *Pool) Compact() {
	p.slab.compact()
}
