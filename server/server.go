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

	"github.com/kataras/iris/v12"
	"github.com/sirupsen/logrus"

	etype "github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/registry"
)

// Handler defines all apis exposed
// The handler under the engine implements the following methods
type Handler interface {
	// A user stores and reads back files encrypted under their own key
	Save(ctx context.Context, opt etype.SaveOptions, r io.Reader) (etype.FileMeta, error)
	Fetch(ctx context.Context, opt etype.FetchOptions) ([]byte, etype.FileMeta, error)
	ListFiles(owner string) ([]etype.FileMeta, error)
	DeleteFile(owner, fileID string) error

	// The share protocol: mint, inspect, redeem and revoke
	// password-gated expiring links
	Issue(ctx context.Context, opt etype.IssueOptions, r io.Reader) (etype.IssueResponse, error)
	Redeem(ctx context.Context, token, password string) ([]byte, registry.Record, error)
	ViewMeta(token string) (etype.ShareMeta, error)
	RevokeShare(token, owner string) error
	ListShares(owner string) ([]registry.Record, error)
}

// Server http server
type Server struct {
	app *iris.Application

	name       string
	listenAddr string
	handler    Handler
}

// New initiate Server
func New(name, listenAddress string, h Handler) (*Server, error) {
	app := iris.New()
	if listenAddress == "" {
		return nil, errorx.New(errorx.ErrCodeConfig, "missing config: listenAddress")
	}

	server := &Server{
		app:        app,
		name:       name,
		listenAddr: listenAddress,
		handler:    h,
	}
	return server, nil
}

// setRoute define the routing of node's server
func (s *Server) setRoute() error {
	v1 := s.app.Party("/v1")
	v1.Get("/health", s.health)

	fileParty := v1.Party("/file")
	fileParty.Post("/save", s.save)
	fileParty.Get("/fetch", s.fetch)
	fileParty.Get("/list", s.listFiles)
	fileParty.Post("/delete", s.deleteFile)

	shareParty := v1.Party("/share")
	shareParty.Post("/issue", s.issue)
	shareParty.Get("/view/{token:string}", s.viewShare)
	shareParty.Post("/download/{token:string}", s.downloadShare)
	shareParty.Post("/revoke", s.revokeShare)
	shareParty.Get("/list", s.listShares)

	s.app.OnAnyErrorCode(func(ictx iris.Context) {
		responseError(ictx, errorx.New(errorx.ErrCodeNotFound, "request url not found"))
	})
	return nil
}

// Serve runs and blocks current routine
func (s *Server) Serve(ctx context.Context) error {
	if err := s.setRoute(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		logrus.Info("server stops ...")
		s.app.Shutdown(context.TODO())
	}()

	logrus.Infof("server starts, and listens port %s", s.listenAddr)
	if err := s.app.Listen(s.listenAddr); err != nil {
		//error occurs when start server
		return err
	}

	return ctx.Err()
}
