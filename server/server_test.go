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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/protector/vaultd/config"
	"github.com/protector/vaultd/engine"
	etype "github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/keystore"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/server/types"
	"github.com/protector/vaultd/storage/local"
)

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) http.Handler {
	keys, err := keystore.New(t.TempDir())
	require.NoError(t, err)
	fileStorage, err := local.New(t.TempDir())
	require.NoError(t, err)
	shareStorage, err := local.New(t.TempDir())
	require.NoError(t, err)

	e, err := engine.NewEngine(
		&config.ShareConf{
			SweepIntervalSeconds: 60,
			DefaultTTLSeconds:    3600,
			MaxTTLSeconds:        7 * 86400,
			MinPasswordLength:    8,
		},
		&config.VaultConf{MaxUploadSize: 1 << 20},
		&engine.NewEngineOption{
			Keys:          keys,
			Registry:      registry.NewMemory(),
			FileStorage:   fileStorage,
			ShareStorage:  shareStorage,
			PublicAddress: "localhost:8121",
		})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	s, err := New("test-node", "localhost:0", e)
	require.NoError(t, err)
	require.NoError(t, s.setRoute())
	require.NoError(t, s.app.Build())
	return s.app
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Empty(t, env.Code)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(t, h, "GET", "/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.HealthResponse
	decodeData(t, w, &resp)
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "test-node", resp.Name)
}

func TestFileLifecycle(t *testing.T) {
	h := newTestHandler(t)
	content := []byte("quarterly numbers")

	w := doRequest(t, h, "POST", "/v1/file/save?owner=alice&name=q3.txt", bytes.NewReader(content), "")
	require.Equal(t, http.StatusOK, w.Code)
	var saved types.SaveResponse
	decodeData(t, w, &saved)
	require.NotEmpty(t, saved.FileID)
	require.Equal(t, "q3.txt", saved.FileName)

	w = doRequest(t, h, "GET", "/v1/file/fetch?owner=alice&file_id="+saved.FileID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, content, w.Body.Bytes())
	require.Contains(t, w.Header().Get("Content-Disposition"), "q3.txt")

	w = doRequest(t, h, "GET", "/v1/file/list?owner=alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var metas []etype.FileMeta
	decodeData(t, w, &metas)
	require.Len(t, metas, 1)

	w = doRequest(t, h, "POST", "/v1/file/delete?owner=alice&file_id="+saved.FileID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, "GET", "/v1/file/fetch?owner=alice&file_id="+saved.FileID, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareLifecycle(t *testing.T) {
	h := newTestHandler(t)
	content := []byte("the payload behind the link")

	w := doRequest(t, h, "POST", "/v1/file/save?owner=alice&name=doc.txt", bytes.NewReader(content), "")
	require.Equal(t, http.StatusOK, w.Code)
	var saved types.SaveResponse
	decodeData(t, w, &saved)

	w = doRequest(t, h, "POST",
		"/v1/share/issue?owner=alice&file_id="+saved.FileID+"&password="+url.QueryEscape("open sesame"),
		nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var issued etype.IssueResponse
	decodeData(t, w, &issued)
	require.NotEmpty(t, issued.Token)
	require.Contains(t, issued.Link, issued.Token)

	// anyone may view the metadata without a password
	w = doRequest(t, h, "GET", "/v1/share/view/"+issued.Token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var meta etype.ShareMeta
	decodeData(t, w, &meta)
	require.Equal(t, "doc.txt", meta.FileName)

	// the wrong password is refused
	form := url.Values{"password": {"not the one"}}
	w = doRequest(t, h, "POST", "/v1/share/download/"+issued.Token,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusForbidden, w.Code)

	form = url.Values{"password": {"open sesame"}}
	w = doRequest(t, h, "POST", "/v1/share/download/"+issued.Token,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, content, w.Body.Bytes())

	w = doRequest(t, h, "GET", "/v1/share/list?owner=alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var shares []types.ShareEntry
	decodeData(t, w, &shares)
	require.Len(t, shares, 1)
	require.EqualValues(t, 1, shares[0].RedeemCount)

	// only the owner may revoke
	w = doRequest(t, h, "POST", "/v1/share/revoke?owner=mallory&token="+issued.Token, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, h, "POST", "/v1/share/revoke?owner=alice&token="+issued.Token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, "GET", "/v1/share/view/"+issued.Token, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareDirectContent(t *testing.T) {
	h := newTestHandler(t)
	content := []byte("never stored in the vault")

	w := doRequest(t, h, "POST",
		"/v1/share/issue?owner=alice&name=note.txt&one_shot=true&password="+url.QueryEscape("open sesame"),
		bytes.NewReader(content), "")
	require.Equal(t, http.StatusOK, w.Code)
	var issued etype.IssueResponse
	decodeData(t, w, &issued)

	form := url.Values{"password": {"open sesame"}}
	w = doRequest(t, h, "POST", "/v1/share/download/"+issued.Token,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, content, w.Body.Bytes())

	// a one-shot link is burnt after the first redemption
	w = doRequest(t, h, "POST", "/v1/share/download/"+issued.Token,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestShareExpiry(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(t, h, "POST",
		"/v1/share/issue?owner=alice&name=note.txt&ttl=1&password="+url.QueryEscape("open sesame"),
		bytes.NewReader([]byte("short lived")), "")
	require.Equal(t, http.StatusOK, w.Code)
	var issued etype.IssueResponse
	decodeData(t, w, &issued)

	time.Sleep(1100 * time.Millisecond)

	// an expired link is gone, not merely forbidden
	w = doRequest(t, h, "GET", "/v1/share/view/"+issued.Token, nil, "")
	require.Equal(t, http.StatusGone, w.Code)

	form := url.Values{"password": {"open sesame"}}
	w = doRequest(t, h, "POST", "/v1/share/download/"+issued.Token,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusGone, w.Code)
}

func TestSharePolicy(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(t, h, "POST",
		"/v1/share/issue?owner=alice&name=note.txt&password=short",
		bytes.NewReader([]byte("x")), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, "GET", "/v1/share/view/unknown-token", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
