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

	"github.com/TimeWtr/pagestream/errorx"
)

// WithReadableRange confines body to a budget of exactly n bytes from the
// stream's current position: it first establishes ReadableN(n), then
// hides the source (so body cannot trigger a refill that would pull in
// bytes beyond the budget) and caps the visible position so that
// ReadableN(k) for k beyond the remaining budget returns false even if
// more data already happens to sit in the queue. On return — normal or
// panicking — the source and any outer range are restored.
func (s *InputStream) WithReadableRange(ctx context.Context, n int, body func(*InputStream) error) error {
	ok, err := s.ReadableN(ctx, n)
	if err != nil {
		return err
	}
	if !ok {
		return errorx.ErrInsufficientRange
	}

	savedSource := s.source
	prevLimited := s.rangeLimited
	prevLimit := s.rangeLimit

	newLimit := s.Pos() + uint64(n)
	if prevLimited && newLimit > prevLimit {
		newLimit = prevLimit
	}

	s.source = nil
	s.rangeLimited = true
	s.rangeLimit = newLimit

	defer func() {
		s.source = savedSource
		s.rangeLimited = prevLimited
		s.rangeLimit = prevLimit
	}()

	return body(s)
}
