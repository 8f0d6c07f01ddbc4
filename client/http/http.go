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
	"context"
	"io"
	"net/url"
	"path"
	"strconv"

	etype "github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	httpkg "github.com/protector/vaultd/pkgs/http"
	servertypes "github.com/protector/vaultd/server/types"
)

const (
	apiVersion = "v1"
)

type Client struct {
	baseAddr url.URL
}

// New new a client by server address
func New(addr string) (Client, error) {
	base, err := url.Parse(addr)
	if err != nil {
		return Client{}, errorx.NewCode(err, errorx.ErrCodeParam, "invalid addr")
	}
	base.Path = path.Join(base.Path, apiVersion)
	c := Client{
		baseAddr: *base,
	}
	return c, nil
}

// Save upload a file, it is encrypted at rest under the owner's key
func (c *Client) Save(ctx context.Context, r io.Reader, opt SaveOptions) (
	servertypes.SaveResponse, error) {

	url := c.baseAddr
	joinPath(&url, "file", "save")

	q := url.Query()
	q.Add("owner", opt.Owner)
	q.Add("name", opt.FileName)
	url.RawQuery = q.Encode()

	var resp servertypes.SaveResponse
	if err := httpkg.PostResponse(ctx, url.String(), r, &resp); err != nil {
		return resp, err
	}

	return resp, nil
}

// Fetch download a file as plaintext
func (c *Client) Fetch(ctx context.Context, opt FetchOptions) (io.ReadCloser, error) {
	url := c.baseAddr
	joinPath(&url, "file", "fetch")

	q := url.Query()
	q.Add("owner", opt.Owner)
	q.Add("file_id", opt.FileID)
	url.RawQuery = q.Encode()

	reader, err := httpkg.Get(ctx, url.String())
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// ListFiles list the owner's stored files
func (c *Client) ListFiles(ctx context.Context, owner string) ([]etype.FileMeta, error) {
	url := c.baseAddr
	joinPath(&url, "file", "list")

	q := url.Query()
	q.Add("owner", owner)
	url.RawQuery = q.Encode()

	var resp []etype.FileMeta
	if err := httpkg.GetResponse(ctx, url.String(), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteFile remove a stored file
func (c *Client) DeleteFile(ctx context.Context, owner, fileID string) error {
	url := c.baseAddr
	joinPath(&url, "file", "delete")

	q := url.Query()
	q.Add("owner", owner)
	q.Add("file_id", fileID)
	url.RawQuery = q.Encode()

	return httpkg.PostResponse(ctx, url.String(), nil, nil)
}

// Issue mint a password-gated share link, either for a stored file
// referenced by opt.FileID or for content streamed through r
func (c *Client) Issue(ctx context.Context, r io.Reader, opt IssueOptions) (
	etype.IssueResponse, error) {

	url := c.baseAddr
	joinPath(&url, "share", "issue")

	q := url.Query()
	q.Add("owner", opt.Owner)
	q.Add("file_id", opt.FileID)
	q.Add("name", opt.FileName)
	q.Add("password", opt.Password)
	q.Add("ttl", strconv.FormatInt(opt.TTLSeconds, 10))
	q.Add("one_shot", strconv.FormatBool(opt.OneShot))
	url.RawQuery = q.Encode()

	var resp etype.IssueResponse
	if err := httpkg.PostResponse(ctx, url.String(), r, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// ViewShare read a share's metadata, no password needed
func (c *Client) ViewShare(ctx context.Context, token string) (etype.ShareMeta, error) {
	url := c.baseAddr
	joinPath(&url, "share", "view", token)

	var resp etype.ShareMeta
	if err := httpkg.GetResponse(ctx, url.String(), &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// DownloadShare redeem a share with its password
func (c *Client) DownloadShare(ctx context.Context, token, password string) (io.ReadCloser, error) {
	u := c.baseAddr
	joinPath(&u, "share", "download", token)

	form := url.Values{}
	form.Add("password", password)

	reader, err := httpkg.PostForm(ctx, u.String(), form)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// RevokeShare invalidate a token ahead of its expiry
func (c *Client) RevokeShare(ctx context.Context, token, owner string) error {
	url := c.baseAddr
	joinPath(&url, "share", "revoke")

	q := url.Query()
	q.Add("token", token)
	q.Add("owner", owner)
	url.RawQuery = q.Encode()

	return httpkg.PostResponse(ctx, url.String(), nil, nil)
}

// ListShares list the owner's live shares
func (c *Client) ListShares(ctx context.Context, owner string) ([]servertypes.ShareEntry, error) {
	url := c.baseAddr
	joinPath(&url, "share", "list")

	q := url.Query()
	q.Add("owner", owner)
	url.RawQuery = q.Encode()

	var resp []servertypes.ShareEntry
	if err := httpkg.GetResponse(ctx, url.String(), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health probe the server
func (c *Client) Health(ctx context.Context) (servertypes.HealthResponse, error) {
	url := c.baseAddr
	joinPath(&url, "health")

	var resp servertypes.HealthResponse
	if err := httpkg.GetResponse(ctx, url.String(), &resp); err != nil {
		return resp, err
	}
	return resp, nil
}
