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
	"sync"
	"time"

	"github.com/protector/vaultd/errorx"
)

// Memory keeps share records in process memory only.
// Records are lost on restart; that is a named configuration choice.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*Record),
	}
}

// Create mints a record under a fresh token.
// A token collision is never overwritten, the token is drawn again.
func (m *Memory) Create(opt CreateOptions) (string, error) {
	salt, err := genSalt()
	if err != nil {
		return "", err
	}
	now := time.Now().UnixNano()
	record := &Record{
		BlobID:       opt.BlobID,
		Owner:        opt.Owner,
		FileName:     opt.FileName,
		PasswordHash: hashPassword(opt.Password, salt),
		Salt:         salt,
		CreateTime:   now,
		ExpireTime:   now + opt.TTL.Nanoseconds(),
		OneShot:      opt.OneShot,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		token, err := genToken()
		if err != nil {
			return "", err
		}
		if _, exist := m.records[token]; exist {
			continue
		}
		record.Token = token
		m.records[token] = record
		return token, nil
	}
}

// Get returns a copy of the record's metadata without consuming it
func (m *Memory) Get(token string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exist := m.records[token]
	if !exist {
		return Record{}, errorx.New(errorx.ErrCodeNotFound, "share not found")
	}
	if err := checkRedeemable(record, time.Now().UnixNano()); err != nil {
		return Record{}, err
	}
	return *record, nil
}

// Consume validates token and password and updates redemption state.
// The memory-hard password hash runs outside the lock so it cannot
// serialize unrelated operations; the record is re-validated before
// the redemption is committed.
func (m *Memory) Consume(token, password string) (Record, error) {
	m.mu.Lock()
	record, exist := m.records[token]
	if !exist {
		m.mu.Unlock()
		return Record{}, errorx.New(errorx.ErrCodeNotFound, "share not found")
	}
	if err := checkRedeemable(record, time.Now().UnixNano()); err != nil {
		m.mu.Unlock()
		return Record{}, err
	}
	salt, hash := record.Salt, record.PasswordHash
	m.mu.Unlock()

	match := verifyPassword(password, salt, hash)

	m.mu.Lock()
	defer m.mu.Unlock()
	record, exist = m.records[token]
	if !exist {
		return Record{}, errorx.New(errorx.ErrCodeNotFound, "share not found")
	}
	now := time.Now().UnixNano()
	if err := checkRedeemable(record, now); err != nil {
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
	return *record, nil
}

// Revoke removes the record if the owner matches; idempotent
func (m *Memory) Revoke(token, owner string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exist := m.records[token]
	if !exist {
		return Record{}, false, nil
	}
	if record.Owner != owner {
		return Record{}, false, errorx.New(errorx.ErrCodeNotAuthorized, "not the share owner")
	}
	delete(m.records, token)
	return *record, true, nil
}

// ListByOwner returns the owner's records
func (m *Memory) ListByOwner(owner string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []Record
	for _, record := range m.records {
		if record.Owner == owner {
			records = append(records, *record)
		}
	}
	return records, nil
}

// Sweep drops expired records
func (m *Memory) Sweep(now int64) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var swept []Record
	for token, record := range m.records {
		if now >= record.ExpireTime {
			swept = append(swept, *record)
			delete(m.records, token)
		}
	}
	return swept, nil
}

func (m *Memory) Close() {}
