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
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/protector/vaultd/errorx"
)

const (
	// KeySize 256-bit keys for AES-256-GCM
	KeySize = 32

	keyFileSuffix = ".key"
)

// identity is used as a path element, restrict it to a safe charset
var identityPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// Key opaque symmetric key material owned by a single identity
type Key []byte

// Store owns one long-lived symmetric key per user identity.
// Keys are created on first use and never silently rotated afterwards.
type Store struct {
	path string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates Store rooted at the given path
// returns error if any mistake occured, and process should cease
func New(path string) (*Store, error) {
	if len(path) == 0 {
		return nil, errorx.New(errorx.ErrCodeConfig, "missing config: keyPath")
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeConfig, "failed to mkdir for keystore")
	}

	store := &Store{
		path:  path,
		locks: make(map[string]*sync.Mutex),
	}
	return store, nil
}

// GetOrCreate returns the identity's key, generating and persisting a fresh
// one on first use. Creation is serialized per identity, so concurrent
// first-time callers observe the same key. A key is only returned after it
// has been durably written.
func (s *Store) GetOrCreate(identity string) (Key, error) {
	if !identityPattern.MatchString(identity) {
		return nil, errorx.New(errorx.ErrCodeParam, "invalid identity: %s", identity)
	}

	lk := s.identityLock(identity)
	lk.Lock()
	defer lk.Unlock()

	key, err := s.load(identity)
	if err == nil {
		return key, nil
	}
	if !errorx.Is(err, errorx.ErrCodeNotFound) {
		return nil, err
	}

	key = make(Key, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to generate key")
	}
	if err := s.persist(identity, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Load retrieves an existing key, never creates one
func (s *Store) Load(identity string) (Key, error) {
	if !identityPattern.MatchString(identity) {
		return nil, errorx.New(errorx.ErrCodeParam, "invalid identity: %s", identity)
	}

	lk := s.identityLock(identity)
	lk.Lock()
	defer lk.Unlock()

	return s.load(identity)
}

func (s *Store) identityLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk, exist := s.locks[identity]
	if !exist {
		lk = new(sync.Mutex)
		s.locks[identity] = lk
	}
	return lk
}

func (s *Store) load(identity string) (Key, error) {
	filePath := filepath.Join(s.path, identity+keyFileSuffix)
	content, err := ioutil.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorx.New(errorx.ErrCodeNotFound, "key not found for identity %s", identity)
		}
		return nil, errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to read key file")
	}

	key, err := hex.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "corrupted key file for identity %s", identity)
	}
	if len(key) != KeySize {
		return nil, errorx.New(errorx.ErrCodeKeyUnavailable, "bad key length %d for identity %s", len(key), identity)
	}
	return key, nil
}

// persist writes the key to a temporary file and renames it into place,
// syncing before the rename. The caller never sees a key that might not
// survive restart.
func (s *Store) persist(identity string, key Key) error {
	filePath := filepath.Join(s.path, identity+keyFileSuffix)

	tmp, err := ioutil.TempFile(s.path, "."+identity+"-*")
	if err != nil {
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to create key file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write([]byte(hex.EncodeToString(key))); err != nil {
		tmp.Close()
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to write key file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to sync key file")
	}
	if err := tmp.Close(); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to close key file")
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to chmod key file")
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeKeyUnavailable, "failed to commit key file")
	}
	return nil
}
