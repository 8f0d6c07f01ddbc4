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

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/protector/vaultd/codec"
	"github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/pkgs/sortable"
	xstrings "github.com/protector/vaultd/pkgs/strings"
	"github.com/protector/vaultd/storage"
)

const metaSuffix = ".meta"

// Save encrypts the content under the owner's key and stores it.
// The detailed steps are as follows:
// 1. parameters check, file name sanitized and extension policy applied
// 2. get or create the owner's key, first use creates it
// 3. encrypt with a fresh nonce
// 4. commit blob and metadata under a new file id
func (e *Engine) Save(ctx context.Context, opt types.SaveOptions, r io.Reader) (types.FileMeta, error) {
	if err := opt.Valid(); err != nil {
		return types.FileMeta{}, err
	}
	name := xstrings.SanitizeFileName(opt.FileName)
	if len(name) == 0 {
		return types.FileMeta{}, errorx.New(errorx.ErrCodeParam, "invalid file name: %s", opt.FileName)
	}
	if err := e.checkExtension(name); err != nil {
		return types.FileMeta{}, err
	}

	plaintext, err := e.readLimited(r)
	if err != nil {
		return types.FileMeta{}, err
	}

	key, err := e.keys.GetOrCreate(opt.Owner)
	if err != nil {
		return types.FileMeta{}, err
	}

	blob, err := codec.Encrypt(key, plaintext)
	if err != nil {
		return types.FileMeta{}, err
	}

	fileID, err := uuid.NewRandom()
	if err != nil {
		return types.FileMeta{}, errorx.Internal(err, "failed to get uuid")
	}
	meta := types.FileMeta{
		ID:         fileID.String(),
		Owner:      opt.Owner,
		FileName:   name,
		Size:       int64(len(plaintext)),
		CreateTime: time.Now().UnixNano(),
	}

	select {
	case <-ctx.Done():
		return types.FileMeta{}, ctx.Err()
	default:
	}

	blobKey := opt.Owner + "/" + meta.ID
	if err := e.fileStorage.Save(blobKey, bytes.NewReader(blob.Marshal())); err != nil {
		return types.FileMeta{}, err
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return types.FileMeta{}, errorx.NewCode(err, errorx.ErrCodeEncoding, "failed to marshal meta")
	}
	if err := e.fileStorage.Save(blobKey+metaSuffix, bytes.NewReader(metaBytes)); err != nil {
		// do not leave a blob without metadata behind
		e.fileStorage.Delete(blobKey)
		return types.FileMeta{}, err
	}

	logger.WithFields(logrus.Fields{
		"file_id":   meta.ID,
		"file_name": meta.FileName,
		"owner":     meta.Owner,
		"size":      meta.Size,
	}).Info("file saved")

	return meta, nil
}

// Fetch loads a stored file and decrypts it with the owner's key
func (e *Engine) Fetch(ctx context.Context, opt types.FetchOptions) ([]byte, types.FileMeta, error) {
	if err := opt.Valid(); err != nil {
		return nil, types.FileMeta{}, err
	}
	if _, err := uuid.Parse(opt.FileID); err != nil {
		return nil, types.FileMeta{}, errorx.New(errorx.ErrCodeParam, "invalid file id: %s", opt.FileID)
	}

	meta, err := e.loadMeta(opt.Owner, opt.FileID)
	if err != nil {
		return nil, types.FileMeta{}, err
	}

	blobBytes, err := storage.LoadBytes(e.fileStorage, opt.Owner+"/"+opt.FileID)
	if err != nil {
		return nil, types.FileMeta{}, err
	}
	blob, err := codec.UnmarshalBlob(blobBytes)
	if err != nil {
		return nil, types.FileMeta{}, err
	}

	key, err := e.keys.Load(opt.Owner)
	if err != nil {
		if errorx.Is(err, errorx.ErrCodeNotFound) {
			return nil, types.FileMeta{}, errorx.New(errorx.ErrCodeKeyUnavailable, "no key for owner %s", opt.Owner)
		}
		return nil, types.FileMeta{}, err
	}

	plaintext, err := codec.Decrypt(key, blob)
	if err != nil {
		return nil, types.FileMeta{}, err
	}
	return plaintext, meta, nil
}

// ListFiles lists the owner's stored files, newest first
func (e *Engine) ListFiles(owner string) ([]types.FileMeta, error) {
	if len(owner) == 0 {
		return nil, errorx.New(errorx.ErrCodeParam, "empty owner")
	}

	keys, err := e.fileStorage.List(owner)
	if err != nil {
		return nil, err
	}

	var metas sortable.FileMetas
	for _, key := range keys {
		if len(key) <= len(metaSuffix) || key[len(key)-len(metaSuffix):] != metaSuffix {
			continue
		}
		content, err := storage.LoadBytes(e.fileStorage, key)
		if err != nil {
			return nil, err
		}
		var meta types.FileMeta
		if err := json.Unmarshal(content, &meta); err != nil {
			return nil, errorx.NewCode(err, errorx.ErrCodeEncoding, "failed to unmarshal meta")
		}
		metas = append(metas, meta)
	}
	sort.Sort(metas)
	return metas, nil
}

// DeleteFile removes a stored file and its metadata
func (e *Engine) DeleteFile(owner, fileID string) error {
	if len(owner) == 0 || len(fileID) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty owner or file id")
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return errorx.New(errorx.ErrCodeParam, "invalid file id: %s", fileID)
	}

	blobKey := owner + "/" + fileID
	deleted, err := e.fileStorage.Delete(blobKey)
	if err != nil {
		return err
	}
	if !deleted {
		return errorx.New(errorx.ErrCodeNotFound, "file not found")
	}
	if _, err := e.fileStorage.Delete(blobKey + metaSuffix); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"owner":   owner,
	}).Info("file deleted")
	return nil
}

func (e *Engine) loadMeta(owner, fileID string) (types.FileMeta, error) {
	content, err := storage.LoadBytes(e.fileStorage, owner+"/"+fileID+metaSuffix)
	if err != nil {
		if errorx.Is(err, errorx.ErrCodeNotFound) {
			return types.FileMeta{}, errorx.New(errorx.ErrCodeNotFound, "file not found")
		}
		return types.FileMeta{}, err
	}

	var meta types.FileMeta
	if err := json.Unmarshal(content, &meta); err != nil {
		return types.FileMeta{}, errorx.NewCode(err, errorx.ErrCodeEncoding, "failed to unmarshal meta")
	}
	return meta, nil
}

// readLimited reads the payload, enforcing the configured size limit
func (e *Engine) readLimited(r io.Reader) ([]byte, error) {
	max := e.vaultConf.MaxUploadSize
	content, err := ioutil.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to read content")
	}
	if int64(len(content)) > max {
		return nil, errorx.New(errorx.ErrCodeParam, "content exceeds max size %d", max)
	}
	return content, nil
}

func (e *Engine) checkExtension(name string) error {
	allowed := e.vaultConf.AllowedExtensions
	if len(allowed) == 0 {
		return nil
	}
	if !xstrings.IsContain(allowed, xstrings.FileExtension(name)) {
		return errorx.New(errorx.ErrCodeParam, "file type not allowed: %s", name)
	}
	return nil
}
