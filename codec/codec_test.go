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

package codec

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/keystore"
)

func testKey(t *testing.T) keystore.Key {
	key := make(keystore.Key, keystore.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)

	for _, plaintext := range [][]byte{
		[]byte("hello world"),
		{},
		make([]byte, 1<<20),
	} {
		blob, err := Encrypt(key, plaintext)
		require.NoError(t, err)
		require.Len(t, blob.Nonce, NonceSize)

		recovered, err := Decrypt(key, blob)
		require.NoError(t, err)
		require.Equal(t, plaintext, recovered)
	}
}

func TestFreshNonce(t *testing.T) {
	key := testKey(t)
	data := []byte("same plaintext")

	b1, err := Encrypt(key, data)
	require.NoError(t, err)
	b2, err := Encrypt(key, data)
	require.NoError(t, err)

	require.NotEqual(t, b1.Nonce, b2.Nonce)
	require.NotEqual(t, b1.CipherText, b2.CipherText)
}

func TestTamperDetection(t *testing.T) {
	key := testKey(t)
	blob, err := Encrypt(key, []byte("sensitive content"))
	require.NoError(t, err)

	// flipping any single bit of the ciphertext or tag must fail decryption
	for i := range blob.CipherText {
		tampered := EncryptedBlob{
			Nonce:      blob.Nonce,
			CipherText: append([]byte{}, blob.CipherText...),
		}
		tampered.CipherText[i] ^= 0x01

		_, err := Decrypt(key, tampered)
		require.Error(t, err)
		require.True(t, errorx.Is(err, errorx.ErrCodeCrypto))
	}
}

func TestWrongKey(t *testing.T) {
	blob, err := Encrypt(testKey(t), []byte("content"))
	require.NoError(t, err)

	_, err = Decrypt(testKey(t), blob)
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.ErrCodeCrypto))
}

func TestMarshalBlob(t *testing.T) {
	key := testKey(t)
	blob, err := Encrypt(key, []byte("round the wire"))
	require.NoError(t, err)

	parsed, err := UnmarshalBlob(blob.Marshal())
	require.NoError(t, err)

	recovered, err := Decrypt(key, parsed)
	require.NoError(t, err)
	require.Equal(t, []byte("round the wire"), recovered)

	// truncated input is rejected before any decryption attempt
	_, err = UnmarshalBlob(blob.Marshal()[:NonceSize+3])
	require.Error(t, err)
}
