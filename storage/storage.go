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

package storage

import (
	"io"
	"io/ioutil"
)

// Storage stores ciphertext blobs
type Storage interface {
	// Save persists a blob; a partially written blob is never visible
	Save(key string, value io.Reader) error
	// Load retrieves a blob
	Load(key string) (io.ReadCloser, error)
	// Exist checks if a blob exists
	Exist(key string) (bool, error)
	// Delete removes a blob
	Delete(key string) (bool, error)
	// List returns the keys under a prefix
	List(prefix string) ([]string, error)
}

// LoadBytes loads a blob fully into memory
func LoadBytes(s Storage, key string) ([]byte, error) {
	r, err := s.Load(key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}
