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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandle_CloseIsIdempotent(t *testing.T) {
	s, err := UnsafeMemory([]byte("payload"))
	require.NoError(t, err)

	h := NewHandle(s)
	require.NoError(t, h.Close(true))
	require.NoError(t, h.Close(true))
}

func TestHandle_CloseDetachedDoesNotBlock(t *testing.T) {
	s, err := UnsafeMemory([]byte("payload"))
	require.NoError(t, err)

	h := NewHandle(s)
	require.NoError(t, h.Close(false))
}

func TestHandle_StreamReturnsOwnedStream(t *testing.T) {
	s, err := UnsafeMemory([]byte("payload"))
	require.NoError(t, err)

	h := NewHandle(s)
	defer h.Close(true)

	require.Same(t, s, h.Stream())
}
