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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TimeWtr/pagestream/errorx"
	"github.com/TimeWtr/pagestream/pagebuf"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOpenBufferedFile_MissingPath(t *testing.T) {
	_, _, err := OpenBufferedFile(filepath.Join(t.TempDir(), "does-not-exist"), 0, 4096)
	require.Error(t, err)
	require.True(t, errors.Is(err, errorx.ErrFileNotFound))
}

func TestBufferedFile_ReadSyncPageByPage(t *testing.T) {
	content := "hello world, this is buffered file content"
	path := writeTempFile(t, content)

	_, src, err := OpenBufferedFile(path, 0, 8)
	require.NoError(t, err)
	defer src.CloseSync()

	buffers := pagebuf.New(8, nil)
	var got []byte
	for !buffers.EOFReached() {
		n, err := src.ReadSync(buffers, nil)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	for buffers.Len() > 0 {
		span := buffers.ReadableSpanOfFront()
		got = append(got, span.Bytes()...)
		buffers.AdvanceToNextReadableSpan()
	}

	require.Equal(t, content, string(got))
}

func TestBufferedFile_ReadSyncDirectBypass(t *testing.T) {
	content := "direct bypass path"
	path := writeTempFile(t, content)

	_, src, err := OpenBufferedFile(path, 0, 4096)
	require.NoError(t, err)
	defer src.CloseSync()

	buffers := pagebuf.New(4096, nil)
	dst := make([]byte, len(content))
	n, err := src.ReadSync(buffers, dst)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	require.Equal(t, content, string(dst))

	// A read that fills dst exactly has not observed EOF yet; the next
	// direct read produces nothing and marks it.
	require.False(t, buffers.EOFReached())
	n, err = src.ReadSync(buffers, make([]byte, 1))
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.True(t, buffers.EOFReached())
}

func TestBufferedFile_GetLenReflectsPosition(t *testing.T) {
	content := "0123456789"
	path := writeTempFile(t, content)

	_, src, err := OpenBufferedFile(path, 0, 4096)
	require.NoError(t, err)
	defer src.CloseSync()

	remaining, ok := src.GetLen()
	require.True(t, ok)
	require.Equal(t, uint64(len(content)), remaining)

	dst := make([]byte, 4)
	buffers := pagebuf.New(4096, nil)
	_, err = src.ReadSync(buffers, dst)
	require.NoError(t, err)

	remaining, ok = src.GetLen()
	require.True(t, ok)
	require.Equal(t, uint64(len(content)-4), remaining)
}

func TestBufferedFile_CloseIsIdempotent(t *testing.T) {
	path := writeTempFile(t, "x")
	_, src, err := OpenBufferedFile(path, 0, 4096)
	require.NoError(t, err)

	require.NoError(t, src.CloseSync())
	require.NoError(t, src.CloseSync())
}
