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

package server

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	etype "github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/server/types"
)

// save stores a file encrypted at rest.
// The content arrives either as the raw request body or as the
// "file" field of a multipart form.
func (s *Server) save(ictx iris.Context) {
	req := etype.SaveOptions{
		Owner:    ictx.URLParam("owner"),
		FileName: ictx.URLParam("name"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ictx.OnConnectionClose(func(iris.Context) { cancel() })

	content, closer, err := requestContent(ictx)
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "invalid content"))
		return
	}
	defer closer()

	if req.FileName == "" {
		req.FileName = contentFileName(ictx)
	}
	if err := req.Valid(); err != nil {
		responseError(ictx, errorx.Wrap(err, "invalid params"))
		return
	}

	meta, err := s.handler.Save(ctx, req, content)
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to save"))
		return
	}
	responseJSON(ictx, types.SaveResponse{
		FileID:   meta.ID,
		FileName: meta.FileName,
	})
}

// fetch reads a file back as plaintext
func (s *Server) fetch(ictx iris.Context) {
	req := etype.FetchOptions{
		Owner:  ictx.URLParam("owner"),
		FileID: ictx.URLParam("file_id"),
	}
	if err := req.Valid(); err != nil {
		responseError(ictx, errorx.Wrap(err, "invalid params"))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ictx.OnConnectionClose(func(iris.Context) { cancel() })

	content, meta, err := s.handler.Fetch(ctx, req)
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to fetch"))
		return
	}
	responseAttachment(ictx, meta.FileName, content)
}

// listFiles lists a user's stored files
func (s *Server) listFiles(ictx iris.Context) {
	resp, err := s.handler.ListFiles(ictx.URLParam("owner"))
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to list files"))
		return
	}
	responseJSON(ictx, resp)
}

// deleteFile removes a stored file
func (s *Server) deleteFile(ictx iris.Context) {
	owner := ictx.URLParam("owner")
	fileID := ictx.URLParam("file_id")

	if err := s.handler.DeleteFile(owner, fileID); err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to delete file"))
		return
	}
	responseJSON(ictx, "success")
}

// issue mints a password-gated share link, either for an already stored
// file referenced by file_id, or for content streamed in the request body
func (s *Server) issue(ictx iris.Context) {
	req := etype.IssueOptions{
		Owner:      ictx.URLParam("owner"),
		FileID:     ictx.URLParam("file_id"),
		FileName:   ictx.URLParam("name"),
		Password:   ictx.URLParam("password"),
		TTLSeconds: ictx.URLParamInt64Default("ttl", 0),
		OneShot:    ictx.URLParam("one_shot") == "true",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ictx.OnConnectionClose(func(iris.Context) { cancel() })

	var content io.Reader
	if req.FileID == "" {
		body, closer, err := requestContent(ictx)
		if err != nil {
			responseError(ictx, errorx.Wrap(err, "invalid content"))
			return
		}
		defer closer()
		content = body
		if req.FileName == "" {
			req.FileName = contentFileName(ictx)
		}
	}
	if err := req.Valid(); err != nil {
		responseError(ictx, errorx.Wrap(err, "invalid params"))
		return
	}

	resp, err := s.handler.Issue(ctx, req, content)
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to issue share"))
		return
	}
	responseJSON(ictx, resp)
}

// viewShare exposes share metadata, no password required
func (s *Server) viewShare(ictx iris.Context) {
	resp, err := s.handler.ViewMeta(ictx.Params().Get("token"))
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to view share"))
		return
	}
	responseJSON(ictx, resp)
}

// downloadShare redeems a share, the password travels in the form body
func (s *Server) downloadShare(ictx iris.Context) {
	token := ictx.Params().Get("token")
	password := ictx.PostValueDefault("password", "")
	if password == "" {
		password = ictx.URLParam("password")
	}
	if password == "" {
		responseError(ictx, errorx.New(errorx.ErrCodeParam, "empty password"))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ictx.OnConnectionClose(func(iris.Context) { cancel() })

	content, rec, err := s.handler.Redeem(ctx, token, password)
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to redeem share"))
		return
	}
	responseAttachment(ictx, rec.FileName, content)
}

// revokeShare invalidates a token ahead of its expiry
func (s *Server) revokeShare(ictx iris.Context) {
	token := ictx.URLParam("token")
	owner := ictx.URLParam("owner")

	if err := s.handler.RevokeShare(token, owner); err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to revoke share"))
		return
	}
	responseJSON(ictx, "success")
}

// listShares lists a user's live shares
func (s *Server) listShares(ictx iris.Context) {
	recs, err := s.handler.ListShares(ictx.URLParam("owner"))
	if err != nil {
		responseError(ictx, errorx.Wrap(err, "failed to list shares"))
		return
	}

	resp := make([]types.ShareEntry, 0, len(recs))
	for _, r := range recs {
		resp = append(resp, types.ShareEntry{
			Token:       r.Token,
			FileName:    r.FileName,
			CreateTime:  r.CreateTime,
			ExpireTime:  r.ExpireTime,
			OneShot:     r.OneShot,
			RedeemCount: r.RedeemCount,
		})
	}
	responseJSON(ictx, resp)
}

// health liveness probe
func (s *Server) health(ictx iris.Context) {
	responseJSON(ictx, types.HealthResponse{
		Status: "ok",
		Name:   s.name,
		Time:   time.Now().UnixNano(),
	})
}

// requestContent returns the uploaded content, from the "file" field of a
// multipart form or from the raw request body
func requestContent(ictx iris.Context) (io.Reader, func(), error) {
	contentType := ictx.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		file, _, err := ictx.FormFile("file")
		if err != nil {
			return nil, nil, errorx.NewCode(err, errorx.ErrCodeParam, "missing multipart file field")
		}
		return file, func() { file.Close() }, nil
	}
	return ictx.Request().Body, func() {}, nil
}

// contentFileName names a multipart upload after its original file name
func contentFileName(ictx iris.Context) string {
	contentType := ictx.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		return ""
	}
	_, header, err := ictx.FormFile("file")
	if err != nil {
		return ""
	}
	return header.Filename
}
