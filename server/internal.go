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
	"fmt"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/sirupsen/logrus"

	"github.com/protector/vaultd/errorx"
)

// statusOf maps an error code onto the http status line.
// An expired link and an unknown token are deliberately told apart,
// the tokens are unguessable so nothing is leaked by doing so.
func statusOf(code string) int {
	switch code {
	case errorx.ErrCodeParam, errorx.ErrCodePolicy, errorx.ErrCodeEncoding:
		return http.StatusBadRequest
	case errorx.ErrCodeNotAuthorized, errorx.ErrCodeWrongPassword, errorx.ErrCodeAlreadyRedeemed:
		return http.StatusForbidden
	case errorx.ErrCodeNotFound:
		return http.StatusNotFound
	case errorx.ErrCodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func responseError(ctx iris.Context, err error) {
	logrus.WithError(err).Warn("error from server")

	code, _ := errorx.Parse(err)
	ctx.StatusCode(statusOf(code))
	ctx.JSON(errorx.ParseAndWrap(err, "from vaultd api"))
}

type response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func responseJSON(ctx iris.Context, o interface{}) {
	ctx.StatusCode(http.StatusOK)
	ctx.JSON(response{
		Data: o,
	})
}

// responseAttachment serves bytes as a file download
func responseAttachment(ctx iris.Context, fileName string, bs []byte) {
	ctx.StatusCode(http.StatusOK)
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	ctx.ContentType("application/octet-stream")
	ctx.Write(bs)
}
