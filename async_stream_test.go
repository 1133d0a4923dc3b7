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
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TimeWtr/pagestream/pagesource"
	"github.com/TimeWtr/pagestream/waiter"
)

// memDevice is an always-ready non-blocking device over a fixed byte
// slice: every Read fills as much of p as remains, so only the final read
// is partial.
type memDevice struct {
	data   []byte
	offset int
}

func (d *memDevice) Read(p []byte) (int, error) {
	if d.offset >= len(d.data) {
		return 0, io.EOF
	}
	n := copy(p, d.data[d.offset:])
	d.offset += n
	return n, nil
}

func (d *memDevice) Ready(notify func()) { notify() }

// gatedDevice would-blocks until released, then serves its payload.
type gatedDevice struct {
	mu       sync.Mutex
	inner    memDevice
	released bool
	notify   func()
}

func (d *gatedDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.released {
		return 0, pagesource.ErrWouldBlock
	}
	return d.inner.Read(p)
}

func (d *gatedDevice) Ready(notify func()) {
	d.mu.Lock()
	d.notify = notify
	d.mu.Unlock()
}

func (d *gatedDevice) release() {
	d.mu.Lock()
	d.released = true
	n := d.notify
	d.mu.Unlock()
	if n != nil {
		n()
	}
}

func TestAsyncInput_EndToEnd(t *testing.T) {
	ctx := context.Background()
	payload := []byte("asynchronous page-oriented payload")

	s, err := AsyncInput(&memDevice{data: payload}, 8, waiter.NewManager())
	require.NoError(t, err)
	defer s.CloseAsync(ctx)

	var got []byte
	for {
		b, ok, err := s.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, payload, got)
}

func TestTimeoutToNextByte_TimesOutThenRecovers(t *testing.T) {
	ctx := context.Background()
	dev := &gatedDevice{inner: memDevice{data: []byte("late bytes")}}

	s, err := AsyncInput(dev, 16, waiter.NewManager())
	require.NoError(t, err)
	defer s.CloseAsync(ctx)

	ok, err := s.TimeoutToNextByte(ctx, time.Now().Add(30*time.Millisecond))
	require.NoError(t, err)
	require.False(t, ok)

	// Cancellation left the stream consistent: once the device produces,
	// the same stream reads the full payload.
	dev.release()
	var got []byte
	for {
		b, ok, err := s.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, "late bytes", string(got))
}
