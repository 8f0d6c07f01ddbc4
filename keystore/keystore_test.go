// Copyright (c) 2021 PaddlePaddle Authors. All Rights Reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package keystore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protector/vaultd/errorx"
)

func TestGetOrCreateStable(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	k1, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	require.Len(t, []byte(k1), KeySize)

	k2, err := store.GetOrCreate("alice")
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := store.Load("alice")
	require.NoError(t, err)
	require.Equal(t, k1, k3)

	// a different identity gets a different key
	k4, err := store.GetOrCreate("bob")
	require.NoError(t, err)
	require.NotEqual(t, k1, k4)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	const workers = 32
	keys := make([]Key, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := store.GetOrCreate("carol")
			require.NoError(t, err)
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Equal(t, keys[0], keys[i])
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	k1, err := store.GetOrCreate("alice")
	require.NoError(t, err)

	reopened, err := New(dir)
	require.NoError(t, err)
	k2, err := reopened.Load("alice")
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestLoadUnknown(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nobody")
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))
}

func TestInvalidIdentity(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "a/b", "white space"} {
		_, err := store.GetOrCreate(id)
		require.Error(t, err)
		require.True(t, errorx.Is(err, errorx.ErrCodeParam))
	}
}
