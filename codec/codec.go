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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/keystore"
)

// NonceSize standard GCM nonce size
const NonceSize = 12

// EncryptedBlob is the unit produced by one Encrypt call: the nonce and the
// ciphertext with its authentication tag, stored together.
type EncryptedBlob struct {
	Nonce      []byte
	CipherText []byte
}

// Marshal serializes the blob as nonce||ciphertext
func (b EncryptedBlob) Marshal() []byte {
	out := make([]byte, 0, len(b.Nonce)+len(b.CipherText))
	out = append(out, b.Nonce...)
	out = append(out, b.CipherText...)
	return out
}

// UnmarshalBlob splits nonce||ciphertext back into an EncryptedBlob.
// A blob shorter than nonce+tag cannot be valid.
func UnmarshalBlob(bs []byte) (EncryptedBlob, error) {
	if len(bs) < NonceSize+16 {
		return EncryptedBlob{}, errorx.New(errorx.ErrCodeCrypto, "blob truncated")
	}
	return EncryptedBlob{
		Nonce:      bs[:NonceSize],
		CipherText: bs[NonceSize:],
	}, nil
}

// Encrypt encrypts plaintext with the identity's key using AES-256-GCM.
// The nonce is generated inside, a fresh one per call.
func Encrypt(key keystore.Key, plaintext []byte) (EncryptedBlob, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return EncryptedBlob{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedBlob{}, errorx.NewCode(err, errorx.ErrCodeCrypto, "failed to generate nonce")
	}

	blob := EncryptedBlob{
		Nonce:      nonce,
		CipherText: aead.Seal(nil, nonce, plaintext, nil),
	}
	return blob, nil
}

// Decrypt verifies the authentication tag and returns the plaintext.
// On tag mismatch no partial plaintext is returned.
func Decrypt(key keystore.Key, blob EncryptedBlob) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(blob.Nonce) != NonceSize {
		return nil, errorx.New(errorx.ErrCodeCrypto, "authentication failed")
	}

	plaintext, err := aead.Open(nil, blob.Nonce, blob.CipherText, nil)
	if err != nil {
		return nil, errorx.New(errorx.ErrCodeCrypto, "authentication failed")
	}
	if plaintext == nil {
		// empty payloads decrypt to an empty slice, not an absent one
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newAEAD(key keystore.Key) (cipher.AEAD, error) {
	if len(key) != keystore.KeySize {
		return nil, errorx.New(errorx.ErrCodeCrypto, "bad key length %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeCrypto, "failed to init cipher")
	}
	return cipher.NewGCM(block)
}
