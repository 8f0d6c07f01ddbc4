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

package registry

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/protector/vaultd/errorx"
)

const (
	// tokenBytes 256 bits of entropy, 43 url-safe characters once encoded
	tokenBytes = 32
	saltBytes  = 16

	// argon2id parameters
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// Record is a minted share: it references exactly one ciphertext blob and
// carries everything the redeem protocol needs. The plaintext password is
// never stored.
type Record struct {
	Token    string `json:"token"`
	BlobID   string `json:"blob_id"`
	Owner    string `json:"owner"`
	FileName string `json:"file_name"`

	PasswordHash []byte `json:"password_hash"`
	Salt         []byte `json:"salt"`

	CreateTime int64 `json:"create_time"`
	ExpireTime int64 `json:"expire_time"`

	OneShot      bool  `json:"one_shot"`
	Consumed     bool  `json:"consumed"`
	RedeemCount  int64 `json:"redeem_count"`
	LastRedeemAt int64 `json:"last_redeem_at"`
}

// CreateOptions parameters for minting a share record
type CreateOptions struct {
	BlobID   string
	Owner    string
	FileName string
	Password string
	TTL      time.Duration
	OneShot  bool
}

// Registry maps share tokens to records. Implementations must serialize all
// mutations of a record; in particular a one-shot consumption is atomic with
// the password check.
type Registry interface {
	// Create mints an unguessable token for the given blob
	Create(opt CreateOptions) (string, error)
	// Get returns metadata of a still-valid record without consuming it
	Get(token string) (Record, error)
	// Consume checks existence, expiry and password in that order, and marks
	// one-shot records consumed in the same critical section
	Consume(token, password string) (Record, error)
	// Revoke removes the owner's record; revoking twice or revoking an
	// unknown token is not an error
	Revoke(token, owner string) (Record, bool, error)
	// ListByOwner returns the owner's records, newest first
	ListByOwner(owner string) ([]Record, error)
	// Sweep removes records past their expiry and reports them so the
	// caller can release the ciphertext blobs. Consumed one-shot records
	// stay until expiry so late redeemers still learn why they are refused
	Sweep(now int64) ([]Record, error)

	Close()
}

// genToken draws 256 bits from a cryptographically secure source
func genToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errorx.NewCode(err, errorx.ErrCodeInternal, "failed to generate token")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func genSalt() ([]byte, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to generate salt")
	}
	return salt, nil
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func verifyPassword(password string, salt, hash []byte) bool {
	got := hashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, hash) == 1
}

// checkRedeemable applies the validation order shared by both backends:
// existence is checked by the caller, then expiry, then one-shot state.
// The password is checked last so its cost is not paid for dead tokens.
func checkRedeemable(r *Record, now int64) error {
	if now >= r.ExpireTime {
		return errorx.New(errorx.ErrCodeExpired, "share expired")
	}
	if r.OneShot && r.Consumed {
		return errorx.New(errorx.ErrCodeAlreadyRedeemed, "share already redeemed")
	}
	return nil
}
