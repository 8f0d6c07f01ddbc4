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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/protector/vaultd/config"
	"github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/keystore"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/storage/local"
)

func newTestEngine(t *testing.T) *Engine {
	keys, err := keystore.New(t.TempDir())
	require.NoError(t, err)
	fileStorage, err := local.New(t.TempDir())
	require.NoError(t, err)
	shareStorage, err := local.New(t.TempDir())
	require.NoError(t, err)

	shareConf := &config.ShareConf{
		SweepIntervalSeconds: 60,
		DefaultTTLSeconds:    3600,
		MaxTTLSeconds:        7 * 86400,
		MinPasswordLength:    8,
	}
	vaultConf := &config.VaultConf{
		MaxUploadSize: 1 << 20,
	}

	e, err := NewEngine(shareConf, vaultConf, &NewEngineOption{
		Keys:          keys,
		Registry:      registry.NewMemory(),
		FileStorage:   fileStorage,
		ShareStorage:  shareStorage,
		PublicAddress: "localhost:8121",
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func saveFile(t *testing.T, e *Engine, owner, name string, content []byte) types.FileMeta {
	meta, err := e.Save(context.TODO(), types.SaveOptions{Owner: owner, FileName: name}, bytes.NewReader(content))
	require.NoError(t, err)
	return meta
}

func TestSaveAndFetch(t *testing.T) {
	e := newTestEngine(t)
	content := []byte("confidential report")

	meta := saveFile(t, e, "alice", "report.pdf", content)
	require.Equal(t, "alice", meta.Owner)
	require.Equal(t, "report.pdf", meta.FileName)
	require.EqualValues(t, len(content), meta.Size)

	got, gotMeta, err := e.Fetch(context.TODO(), types.FetchOptions{Owner: "alice", FileID: meta.ID})
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.Equal(t, meta, gotMeta)
}

func TestFetchIsolatedByOwner(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "report.pdf", []byte("secret"))

	_, _, err := e.Fetch(context.TODO(), types.FetchOptions{Owner: "bob", FileID: meta.ID})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))
}

func TestSaveSanitizesFileName(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "../../etc/passwd", []byte("x"))
	require.Equal(t, "passwd", meta.FileName)
}

func TestSaveRejectsOversized(t *testing.T) {
	e := newTestEngine(t)
	big := make([]byte, (1<<20)+1)

	_, err := e.Save(context.TODO(), types.SaveOptions{Owner: "alice", FileName: "big.bin"}, bytes.NewReader(big))
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.ErrCodeParam))
}

func TestListAndDelete(t *testing.T) {
	e := newTestEngine(t)
	m1 := saveFile(t, e, "alice", "a.txt", []byte("a"))
	saveFile(t, e, "alice", "b.txt", []byte("b"))
	saveFile(t, e, "bob", "c.txt", []byte("c"))

	metas, err := e.ListFiles("alice")
	require.NoError(t, err)
	require.Len(t, metas, 2)

	require.NoError(t, e.DeleteFile("alice", m1.ID))
	metas, err = e.ListFiles("alice")
	require.NoError(t, err)
	require.Len(t, metas, 1)

	err = e.DeleteFile("alice", m1.ID)
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))
}

func TestIssueFromStoredFile(t *testing.T) {
	e := newTestEngine(t)
	content := []byte("shared payload")
	meta := saveFile(t, e, "alice", "doc.txt", content)

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner:    "alice",
		FileID:   meta.ID,
		Password: "open sesame",
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Contains(t, resp.Link, resp.Token)

	got, rec, err := e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.Equal(t, "doc.txt", rec.FileName)

	// shares are multi-use by default
	got, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestIssueDirectContent(t *testing.T) {
	e := newTestEngine(t)
	content := []byte("never stored in the vault")

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner:    "alice",
		FileName: "note.txt",
		Password: "open sesame",
	}, bytes.NewReader(content))
	require.NoError(t, err)

	got, _, err := e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestRedeemWrongPassword(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame",
	}, nil)
	require.NoError(t, err)

	_, _, err = e.Redeem(context.TODO(), resp.Token, "not the one")
	require.True(t, errorx.Is(err, errorx.ErrCodeWrongPassword))

	// a failed attempt must not burn the share
	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)
}

func TestOneShotShare(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", OneShot: true,
	}, nil)
	require.NoError(t, err)

	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)

	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.True(t, errorx.Is(err, errorx.ErrCodeAlreadyRedeemed))
}

func TestOneShotCopyReclaimedByWinner(t *testing.T) {
	e := newTestEngine(t)
	content := []byte("single delivery")
	meta := saveFile(t, e, "alice", "doc.txt", content)

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", OneShot: true,
	}, nil)
	require.NoError(t, err)

	rec, err := e.registry.Get(resp.Token)
	require.NoError(t, err)

	// a sweep between issuing and redeeming must not touch the copy
	require.NoError(t, e.monitor.sweepOnce(context.TODO()))
	exist, err := e.shareStorage.Exist(rec.BlobID)
	require.NoError(t, err)
	require.True(t, exist)

	got, _, err := e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.NoError(t, err)
	require.Equal(t, content, got)

	// the winner reclaims the copy itself
	exist, err = e.shareStorage.Exist(rec.BlobID)
	require.NoError(t, err)
	require.False(t, exist)

	// sweeping afterwards keeps the record refusing late redeemers
	require.NoError(t, e.monitor.sweepOnce(context.TODO()))
	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.True(t, errorx.Is(err, errorx.ErrCodeAlreadyRedeemed))
}

func TestRedeemFailureKeepsOneShot(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", OneShot: true,
	}, nil)
	require.NoError(t, err)

	// corrupt the ephemeral copy so delivery fails
	rec, err := e.registry.Get(resp.Token)
	require.NoError(t, err)
	_, err = e.shareStorage.Delete(rec.BlobID)
	require.NoError(t, err)
	require.NoError(t, e.shareStorage.Save(rec.BlobID, bytes.NewReader(make([]byte, 64))))

	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.True(t, errorx.Is(err, errorx.ErrCodeCrypto))

	// the failed delivery did not burn the share
	_, err = e.registry.Get(resp.Token)
	require.NoError(t, err)
}

func TestIssuePolicy(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	_, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "short",
	}, nil)
	require.True(t, errorx.Is(err, errorx.ErrCodePolicy))

	_, err = e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", TTLSeconds: 365 * 86400,
	}, nil)
	require.True(t, errorx.Is(err, errorx.ErrCodePolicy))
}

func TestViewMeta(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", OneShot: true,
	}, nil)
	require.NoError(t, err)

	view, err := e.ViewMeta(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "doc.txt", view.FileName)
	require.Equal(t, "alice", view.Owner)
	require.True(t, view.OneShot)
	require.Greater(t, view.ExpireTime, view.CreateTime)

	_, err = e.ViewMeta("no-such-token")
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))
}

func TestRevokeShare(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame",
	}, nil)
	require.NoError(t, err)

	err = e.RevokeShare(resp.Token, "mallory")
	require.True(t, errorx.Is(err, errorx.ErrCodeNotAuthorized))

	require.NoError(t, e.RevokeShare(resp.Token, "alice"))
	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))

	// revoking twice is a no-op
	require.NoError(t, e.RevokeShare(resp.Token, "alice"))
}

func TestListShares(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	for i := 0; i < 3; i++ {
		_, err := e.Issue(context.TODO(), types.IssueOptions{
			Owner: "alice", FileID: meta.ID, Password: "open sesame",
		}, nil)
		require.NoError(t, err)
	}

	recs, err := e.ListShares("alice")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	recs, err = e.ListShares("bob")
	require.NoError(t, err)
	require.Len(t, recs, 0)
}

func TestSweepReclaimsExpired(t *testing.T) {
	e := newTestEngine(t)
	meta := saveFile(t, e, "alice", "doc.txt", []byte("x"))

	resp, err := e.Issue(context.TODO(), types.IssueOptions{
		Owner: "alice", FileID: meta.ID, Password: "open sesame", TTLSeconds: 1,
	}, nil)
	require.NoError(t, err)

	rec, err := e.registry.Get(resp.Token)
	require.NoError(t, err)
	exist, err := e.shareStorage.Exist(rec.BlobID)
	require.NoError(t, err)
	require.True(t, exist)

	time.Sleep(1100 * time.Millisecond)

	_, _, err = e.Redeem(context.TODO(), resp.Token, "open sesame")
	require.True(t, errorx.Is(err, errorx.ErrCodeExpired))

	require.NoError(t, e.monitor.sweepOnce(context.TODO()))

	exist, err = e.shareStorage.Exist(rec.BlobID)
	require.NoError(t, err)
	require.False(t, exist)

	// the token is gone entirely after the sweep
	_, err = e.ViewMeta(resp.Token)
	require.True(t, errorx.Is(err, errorx.ErrCodeNotFound))

	// the primary file is untouched
	got, _, err := e.Fetch(context.TODO(), types.FetchOptions{Owner: "alice", FileID: meta.ID})
	require.NoError(t, err)
	require.Equal(t, []byte("x"), got)
}
