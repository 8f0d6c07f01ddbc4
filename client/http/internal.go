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

package http

import (
	"net/url"
	"path"
)

func joinPath(base *url.URL, paths ...string) {
	ps := append([]string{base.Path}, paths...)
	base.Path = path.Join(ps...)
}

// SaveOptions define the parameters required to upload a file
type SaveOptions struct {
	Owner    string
	FileName string
}

// FetchOptions download a file by its id
type FetchOptions struct {
	Owner  string
	FileID string
}

// IssueOptions mint a share link, use FileID for a stored file
// or FileName when streaming content directly
type IssueOptions struct {
	Owner    string
	FileID   string
	FileName string
	Password string

	TTLSeconds int64
	OneShot    bool
}
