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
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/protector/vaultd/codec"
	"github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/pkgs/sortable"
	xstrings "github.com/protector/vaultd/pkgs/strings"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/storage"
)

// Issue mints a password-gated share link.
// The detailed steps are as follows:
// 1. parameters check, ttl and password policy applied
// 2. obtain the plaintext, either from the request body or from a stored file
// 3. encrypt an ephemeral copy under the owner's key and store it apart
//    from the primary files, so the expiry sweep can reclaim it freely
// 4. register the token with the hashed password and expiry
func (e *Engine) Issue(ctx context.Context, opt types.IssueOptions, r io.Reader) (types.IssueResponse, error) {
	if err := opt.Valid(); err != nil {
		return types.IssueResponse{}, err
	}
	ttl, err := e.checkTTL(opt.TTLSeconds)
	if err != nil {
		return types.IssueResponse{}, err
	}
	if len(opt.Password) < e.shareConf.MinPasswordLength {
		return types.IssueResponse{}, errorx.New(errorx.ErrCodePolicy,
			"password shorter than %d characters", e.shareConf.MinPasswordLength)
	}

	var plaintext []byte
	name := opt.FileName
	if len(opt.FileID) != 0 {
		content, meta, err := e.Fetch(ctx, types.FetchOptions{Owner: opt.Owner, FileID: opt.FileID})
		if err != nil {
			return types.IssueResponse{}, err
		}
		plaintext = content
		name = meta.FileName
	} else {
		if r == nil {
			return types.IssueResponse{}, errorx.New(errorx.ErrCodeParam, "missing content")
		}
		content, err := e.readLimited(r)
		if err != nil {
			return types.IssueResponse{}, err
		}
		plaintext = content
	}
	name = xstrings.SanitizeFileName(name)
	if len(name) == 0 {
		return types.IssueResponse{}, errorx.New(errorx.ErrCodeParam, "invalid file name")
	}

	key, err := e.keys.GetOrCreate(opt.Owner)
	if err != nil {
		return types.IssueResponse{}, err
	}
	blob, err := codec.Encrypt(key, plaintext)
	if err != nil {
		return types.IssueResponse{}, err
	}

	blobID, err := uuid.NewRandom()
	if err != nil {
		return types.IssueResponse{}, errorx.Internal(err, "failed to get uuid")
	}
	if err := e.shareStorage.Save(blobID.String(), bytes.NewReader(blob.Marshal())); err != nil {
		return types.IssueResponse{}, err
	}

	token, err := e.registry.Create(registry.CreateOptions{
		BlobID:   blobID.String(),
		Owner:    opt.Owner,
		FileName: name,
		Password: opt.Password,
		TTL:      ttl,
		OneShot:  opt.OneShot,
	})
	if err != nil {
		// reclaim the orphan copy, the token was never minted
		e.shareStorage.Delete(blobID.String())
		return types.IssueResponse{}, err
	}

	logger.WithFields(logrus.Fields{
		"owner":     opt.Owner,
		"file_name": name,
		"one_shot":  opt.OneShot,
		"ttl":       ttl.String(),
	}).Info("share issued")

	return types.IssueResponse{
		Token: token,
		Link:  e.shareLink(token),
	}, nil
}

// Redeem exchanges a token and password for the shared plaintext.
// The detailed steps are as follows:
// 1. look the record up without consuming it
// 2. load and decrypt the ephemeral copy, so an internal failure can
//    never burn a one-shot share without delivering the content
// 3. consume: password checked and one-shot state committed atomically,
//    a concurrent one-shot loser is refused here
// 4. the one-shot winner reclaims the ephemeral copy
func (e *Engine) Redeem(ctx context.Context, token, password string) ([]byte, registry.Record, error) {
	if len(token) == 0 {
		return nil, registry.Record{}, errorx.New(errorx.ErrCodeParam, "empty token")
	}

	rec, err := e.registry.Get(token)
	if err != nil {
		return nil, registry.Record{}, err
	}

	blobBytes, err := storage.LoadBytes(e.shareStorage, rec.BlobID)
	if err != nil {
		if errorx.Is(err, errorx.ErrCodeNotFound) {
			// a concurrent winner already reclaimed the copy,
			// report the record state instead of a bare not-found
			if _, gerr := e.registry.Get(token); gerr != nil {
				return nil, registry.Record{}, gerr
			}
		}
		return nil, registry.Record{}, err
	}
	blob, err := codec.UnmarshalBlob(blobBytes)
	if err != nil {
		return nil, registry.Record{}, err
	}

	key, err := e.keys.Load(rec.Owner)
	if err != nil {
		if errorx.Is(err, errorx.ErrCodeNotFound) {
			return nil, registry.Record{}, errorx.New(errorx.ErrCodeKeyUnavailable,
				"no key for owner %s", rec.Owner)
		}
		return nil, registry.Record{}, err
	}

	plaintext, err := codec.Decrypt(key, blob)
	if err != nil {
		return nil, registry.Record{}, err
	}

	rec, err = e.registry.Consume(token, password)
	if err != nil {
		return nil, registry.Record{}, err
	}

	if rec.OneShot {
		// the sole permitted redemption is in hand, the copy can go
		if _, err := e.shareStorage.Delete(rec.BlobID); err != nil {
			logger.WithField("blob_id", rec.BlobID).WithError(err).Warn("failed to delete redeemed share copy")
		}
	}

	logger.WithFields(logrus.Fields{
		"owner":     rec.Owner,
		"file_name": rec.FileName,
		"one_shot":  rec.OneShot,
	}).Info("share redeemed")

	return plaintext, rec, nil
}

// ViewMeta exposes a share's metadata without the content,
// no password required
func (e *Engine) ViewMeta(token string) (types.ShareMeta, error) {
	if len(token) == 0 {
		return types.ShareMeta{}, errorx.New(errorx.ErrCodeParam, "empty token")
	}
	rec, err := e.registry.Get(token)
	if err != nil {
		return types.ShareMeta{}, err
	}
	return types.ShareMeta{
		FileName:   rec.FileName,
		Owner:      rec.Owner,
		CreateTime: rec.CreateTime,
		ExpireTime: rec.ExpireTime,
		OneShot:    rec.OneShot,
	}, nil
}

// RevokeShare invalidates a token ahead of its expiry.
// Only the issuing owner may revoke. Revoking an already
// invalid token is a no-op.
func (e *Engine) RevokeShare(token, owner string) error {
	if len(token) == 0 || len(owner) == 0 {
		return errorx.New(errorx.ErrCodeParam, "empty token or owner")
	}
	rec, revoked, err := e.registry.Revoke(token, owner)
	if err != nil {
		return err
	}
	if !revoked {
		return nil
	}
	if _, err := e.shareStorage.Delete(rec.BlobID); err != nil {
		logger.WithField("blob_id", rec.BlobID).WithError(err).Warn("failed to delete revoked share copy")
	}

	logger.WithFields(logrus.Fields{
		"owner":     owner,
		"file_name": rec.FileName,
	}).Info("share revoked")
	return nil
}

// ListShares lists the owner's live shares, newest first
func (e *Engine) ListShares(owner string) ([]registry.Record, error) {
	if len(owner) == 0 {
		return nil, errorx.New(errorx.ErrCodeParam, "empty owner")
	}
	recs, err := e.registry.ListByOwner(owner)
	if err != nil {
		return nil, err
	}
	sort.Sort(sortable.ShareRecords(recs))
	return recs, nil
}

func (e *Engine) checkTTL(seconds int64) (time.Duration, error) {
	if seconds == 0 {
		seconds = e.shareConf.DefaultTTLSeconds
	}
	if seconds < 0 || seconds > e.shareConf.MaxTTLSeconds {
		return 0, errorx.New(errorx.ErrCodePolicy, "ttl out of range, max %d seconds", e.shareConf.MaxTTLSeconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func (e *Engine) shareLink(token string) string {
	if e.publicAddress == "" {
		return "/v1/share/view/" + token
	}
	return "http://" + e.publicAddress + "/v1/share/view/" + token
}
