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

package types

import (
	"github.com/protector/vaultd/errorx"
)

// FileMeta describes one encrypted file in a user's vault
type FileMeta struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	CreateTime int64  `json:"create_time"`
}

// SaveOptions options for storing a file encrypted at rest
type SaveOptions struct {
	Owner    string `json:"owner"`
	FileName string `json:"file_name"`
}

// Valid checks if SaveOptions is valid
func (o *SaveOptions) Valid() error {
	if len(o.Owner) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty owner")
	}
	if len(o.FileName) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty file name")
	}
	return nil
}

// FetchOptions options for reading a file back as plaintext
type FetchOptions struct {
	Owner  string `json:"owner"`
	FileID string `json:"file_id"`
}

// Valid checks if FetchOptions is valid
func (o *FetchOptions) Valid() error {
	if len(o.Owner) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty owner")
	}
	if len(o.FileID) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty file id")
	}
	return nil
}

// IssueOptions options for minting a share link.
// Either FileID references an already stored file, or the caller streams the
// content directly in which case FileName names it.
type IssueOptions struct {
	Owner      string `json:"owner"`
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	Password   string `json:"-"`
	TTLSeconds int64  `json:"ttl_seconds"`
	OneShot    bool   `json:"one_shot"`
}

// Valid checks if IssueOptions is valid.
// TTL and password bounds are policy, enforced by the engine.
func (o *IssueOptions) Valid() error {
	if len(o.Owner) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty owner")
	}
	if len(o.Password) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty password")
	}
	if len(o.FileID) == 0 && len(o.FileName) == 0 {
		return errorx.New(errorx.ErrCodeParam, "missing file")
	}
	return nil
}

// IssueResponse the minted locator
type IssueResponse struct {
	Token string `json:"token"`
	Link  string `json:"link"`
}

// ShareMeta share metadata exposed by view, content is never included
type ShareMeta struct {
	FileName   string `json:"file_name"`
	Owner      string `json:"owner"`
	CreateTime int64  `json:"create_time"`
	ExpireTime int64  `json:"expire_time"`
	OneShot    bool   `json:"one_shot"`
}
