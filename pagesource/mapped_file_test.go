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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMappedFile_FullFile(t *testing.T) {
	content := "mapped file contents go here"
	path := filepath.Join(t.TempDir(), "mapped.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	data, src, err := OpenMappedFile(path, 0, 0)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
	defer src.CloseSync()

	remaining, ok := src.GetLen()
	require.True(t, ok)
	require.Equal(t, uint64(len(content)), remaining)
}

func TestOpenMappedFile_EmptyFileYieldsEmptyMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	data, src, err := OpenMappedFile(path, 0, 0)
	require.NoError(t, err)
	require.Empty(t, data)
	require.NoError(t, src.CloseSync())
}

func TestOpenMappedFile_UnalignedOffsetRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	_, _, err := OpenMappedFile(path, 1, 0)
	require.Error(t, err)
}

func TestOpenMappedFile_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "y.txt")
	require.NoError(t, os.WriteFile(path, []byte("some data"), 0o600))

	_, src, err := OpenMappedFile(path, 0, 0)
	require.NoError(t, err)
	require.NoError(t, src.CloseSync())
	require.NoError(t, src.CloseSync())
}
