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

package local

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/protector/vaultd/errorx"
)

// Storage stores blobs locally
type Storage struct {
	RootPath string
}

// a key is one or two safe path elements, e.g. "<uuid>" or "<owner>/<uuid>"
var keyElementPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// New creates Storage with given configuration(local path)
// returns error if any mistake occured, and process should cease
func New(rootPath string) (*Storage, error) {
	if len(rootPath) == 0 {
		return nil, errorx.New(errorx.ErrCodeConfig, "missing config: storage path")
	}

	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeConfig, "failed to mkdir for storage")
	}

	storage := &Storage{
		RootPath: rootPath,
	}

	return storage, nil
}

// Save saves target to local.
// The blob is written to a temporary file and renamed into place, so an
// aborted write never leaves a half-written blob behind the key.
func (s *Storage) Save(key string, value io.Reader) error {
	if !isValidKey(key) {
		return errorx.New(errorx.ErrCodeParam, "invalid key: %s", key)
	}

	exist, err := s.Exist(key)
	if err != nil {
		return err
	}
	if exist {
		return errorx.New(errorx.ErrCodeAlreadyExists, "key already exist")
	}

	filePath := filepath.Join(s.RootPath, key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to mkdir")
	}

	tmp, err := ioutil.TempFile(filepath.Dir(filePath), ".tmp-*")
	if err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to open file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, value); err != nil {
		tmp.Close()
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to sync")
	}
	if err := tmp.Close(); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to close file")
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to commit file")
	}

	return nil
}

// Load retrieves a target from local
func (s *Storage) Load(key string) (io.ReadCloser, error) {
	if !isValidKey(key) {
		return nil, errorx.New(errorx.ErrCodeParam, "invalid key: %s", key)
	}

	exist, err := s.Exist(key)
	if err != nil {
		return nil, err
	}
	if !exist {
		return nil, errorx.New(errorx.ErrCodeNotFound, "key not found")
	}

	filePath := filepath.Join(s.RootPath, key)
	f, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to open file")
	}

	return f, nil
}

// Exist checks if target exists in local
func (s *Storage) Exist(key string) (bool, error) {
	if !isValidKey(key) {
		return false, errorx.New(errorx.ErrCodeParam, "invalid key: %s", key)
	}
	filePath := filepath.Join(s.RootPath, key)
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to check file")
}

// Delete delete a target from local by key
func (s *Storage) Delete(key string) (bool, error) {
	if !isValidKey(key) {
		return false, errorx.New(errorx.ErrCodeParam, "invalid key: %s", key)
	}

	filePath := filepath.Join(s.RootPath, key)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to delete file")
	}
	return true, nil
}

// List returns the keys stored under a prefix directory, e.g. an owner
func (s *Storage) List(prefix string) ([]string, error) {
	dir := s.RootPath
	if len(prefix) > 0 {
		if !keyElementPattern.MatchString(prefix) {
			return nil, errorx.New(errorx.ErrCodeParam, "invalid prefix: %s", prefix)
		}
		dir = filepath.Join(s.RootPath, prefix)
	}

	entries, err := ioutil.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to read dir")
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".tmp-") {
			continue
		}
		if len(prefix) > 0 {
			keys = append(keys, prefix+"/"+entry.Name())
		} else {
			keys = append(keys, entry.Name())
		}
	}
	return keys, nil
}

func isValidKey(key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	for _, part := range parts {
		if part == "." || part == ".." || !keyElementPattern.MatchString(part) {
			return false
		}
	}
	return true
}
