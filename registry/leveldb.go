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

package registry

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/protector/vaultd/errorx"
)

const dbName = "shareDB"

// LevelDB persists share records so they survive restart
type LevelDB struct {
	root string
	db   *leveldb.DB

	// mutations are read-modify-write sequences over the db, keep them serial
	mu sync.Mutex
}

// NewLevelDB opens (or creates) the share record database under root
func NewLevelDB(root string) (*LevelDB, error) {
	f := filepath.Join(root, dbName)
	db, err := leveldb.OpenFile(f, nil)
	if err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "cannot open leveldb")
	}

	ldb := &LevelDB{
		root: root,
		db:   db,
	}
	return ldb, nil
}

// Create mints a record under a fresh token, regenerating on collision
func (l *LevelDB) Create(opt CreateOptions) (string, error) {
	salt, err := genSalt()
	if err != nil {
		return "", err
	}
	now := time.Now().UnixNano()
	record := Record{
		BlobID:       opt.BlobID,
		Owner:        opt.Owner,
		FileName:     opt.FileName,
		PasswordHash: hashPassword(opt.Password, salt),
		Salt:         salt,
		CreateTime:   now,
		ExpireTime:   now + opt.TTL.Nanoseconds(),
		OneShot:      opt.OneShot,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		token, err := genToken()
		if err != nil {
			return "", err
		}
		exist, err := l.db.Has([]byte(token), nil)
		if err != nil {
			return "", errorx.NewCode(err, errorx.ErrCodeInternal, "failed to check token")
		}
		if exist {
			continue
		}
		record.Token = token
		if err := l.put(&record); err != nil {
			return "", err
		}
		return token, nil
	}
}

// Get returns the record's metadata without consuming it
func (l *LevelDB) Get(token string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, err := l.get(token)
	if err != nil {
		return Record{}, err
	}
	if err := checkRedeemable(&record, time.Now().UnixNano()); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Consume validates token and password and commits the new redemption state.
// The memory-hard password hash runs outside the lock so it cannot
// serialize unrelated operations; the record is re-read and re-validated
// before the redemption is committed.
func (l *LevelDB) Consume(token, password string) (Record, error) {
	l.mu.Lock()
	record, err := l.get(token)
	if err != nil {
		l.mu.Unlock()
		return Record{}, err
	}
	if err := checkRedeemable(&record, time.Now().UnixNano()); err != nil {
		l.mu.Unlock()
		return Record{}, err
	}
	salt, hash := record.Salt, record.PasswordHash
	l.mu.Unlock()

	match := verifyPassword(password, salt, hash)

	l.mu.Lock()
	defer l.mu.Unlock()
	record, err = l.get(token)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UnixNano()
	if err := checkRedeemable(&record, now); err != nil {
		return Record{}, err
	}
	if !match {
		return Record{}, errorx.New(errorx.ErrCodeWrongPassword, "wrong password")
	}

	if record.OneShot {
		record.Consumed = true
	}
	record.RedeemCount++
	record.LastRedeemAt = now
	if err := l.put(&record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Revoke removes the record if the owner matches; idempotent
func (l *LevelDB) Revoke(token, owner string) (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, err := l.get(token)
	if err != nil {
		if errorx.Is(err, errorx.ErrCodeNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	if record.Owner != owner {
		return Record{}, false, errorx.New(errorx.ErrCodeNotAuthorized, "not the share owner")
	}
	if err := l.db.Delete([]byte(token), nil); err != nil {
		return Record{}, false, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to delete record")
	}
	return record, true, nil
}

// ListByOwner returns the owner's records
func (l *LevelDB) ListByOwner(owner string) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []Record
	iter := l.db.NewIterator(nil, nil)
	for iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			iter.Release()
			return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to unmarshal record")
		}
		if record.Owner == owner {
			records = append(records, record)
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to iterate records")
	}
	return records, nil
}

// Sweep drops expired records in one batch
func (l *LevelDB) Sweep(now int64) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var swept []Record
	batch := leveldb.Batch{}
	iter := l.db.NewIterator(nil, nil)
	for iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			iter.Release()
			return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to unmarshal record")
		}
		if now >= record.ExpireTime {
			swept = append(swept, record)
			batch.Delete(iter.Key())
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to iterate records")
	}
	if err := l.db.Write(&batch, nil); err != nil {
		return nil, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to write batch")
	}
	return swept, nil
}

func (l *LevelDB) Close() {
	l.db.Close()
}

func (l *LevelDB) get(token string) (Record, error) {
	value, err := l.db.Get([]byte(token), nil)
	if err == ldberrors.ErrNotFound {
		return Record{}, errorx.New(errorx.ErrCodeNotFound, "share not found")
	}
	if err != nil {
		return Record{}, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to get record")
	}

	var record Record
	if err := json.Unmarshal(value, &record); err != nil {
		return Record{}, errorx.NewCode(err, errorx.ErrCodeInternal, "failed to unmarshal record")
	}
	return record, nil
}

func (l *LevelDB) put(record *Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to marshal record")
	}
	if err := l.db.Put([]byte(record.Token), value, nil); err != nil {
		return errorx.NewCode(err, errorx.ErrCodeInternal, "failed to put record")
	}
	return nil
}
