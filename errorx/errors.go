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

// Package errorx collects the sentinel and typed errors shared across the
// pagestream module.
package errorx

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when a file-backed source cannot locate
	// its path at construction time.
	ErrFileNotFound = errors.New("pagestream: file not found")
	// ErrInvalidOffset is returned when a construction offset is not
	// page-aligned or lies outside the file.
	ErrInvalidOffset = errors.New("pagestream: invalid offset")
	// ErrClosed names the closed-stream condition. No InputStream method
	// returns it: after Close, readable() reports false with a nil error.
	ErrClosed = errors.New("pagestream: stream closed")
	// ErrSourceDisconnected names the disconnected-source condition. It is
	// not returned anywhere: once a source has signalled EOF it is cleared,
	// and readable() reports false once the buffered bytes are drained.
	ErrSourceDisconnected = errors.New("pagestream: source disconnected")
	// ErrInsufficientRange is returned by WithReadableRange when the
	// requested budget cannot be established up front.
	ErrInsufficientRange = errors.New("pagestream: insufficient bytes for requested range")
)

// IOError wraps an error surfaced by a PageSource operation (open, read,
// close) so callers can distinguish device failures from EOF and
// programmer errors.
type IOError struct {
	Op  string
	Err error
}

func NewIOError(op string, err error) *IOError {
	return &IOError{Op: op, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pagestream: io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CancellationError is returned from an async operation whose Waiter was
// cancelled. The stream remains internally consistent and may still be
// read afterward.
type CancellationError struct {
	Op string
}

func NewCancellationError(op string) *CancellationError {
	return &CancellationError{Op: op}
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("pagestream: %s cancelled", e.Op)
}

// ProgrammerError signals a contract violation by the caller: reading
// without a preceding true readable(), peekAt beyond the current span, a
// read(n) request exceeding the consumable remainder, or resetting buffers
// on a stream that still has a source. These are not meant to be recovered
// from; Fault panics with a *ProgrammerError as the recover()-able value
// so tests can assert on it with recover() + errors.As.
type ProgrammerError struct {
	Msg string
}

func (e *ProgrammerError) Error() string {
	return "pagestream: programmer error: " + e.Msg
}

// Fault panics with a *ProgrammerError carrying msg. Hot-path callers use
// this instead of returning an error because these conditions are bugs in
// the caller, not recoverable runtime states (spec: "hard fault").
func Fault(msg string) {
	panic(&ProgrammerError{Msg: msg})
}
