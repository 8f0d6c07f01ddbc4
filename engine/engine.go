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
	"context"

	"github.com/sirupsen/logrus"

	"github.com/protector/vaultd/config"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/keystore"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/storage"
)

var logger = logrus.WithField("module", "engine")

// KeyStore owns one symmetric key per user identity
type KeyStore interface {
	GetOrCreate(identity string) (keystore.Key, error)
	Load(identity string) (keystore.Key, error)
}

// Engine orchestrates the vault: it encrypts files at rest under per-user
// keys and runs the share protocol on top of the ciphertext blobs.
// Primary files and ephemeral share copies live in two separate storages;
// the expiry sweep only ever touches the latter.
type Engine struct {
	keys     KeyStore
	registry registry.Registry

	fileStorage  storage.Storage
	shareStorage storage.Storage

	shareConf *config.ShareConf
	vaultConf *config.VaultConf

	// publicAddress is the host:port advertised in minted share links
	publicAddress string

	monitor *Monitor
}

// NewEngineOption contains parameters for initiating Engine
type NewEngineOption struct {
	Keys     KeyStore
	Registry registry.Registry

	FileStorage  storage.Storage
	ShareStorage storage.Storage

	PublicAddress string
}

// NewEngine initiates Engine by the node's configuration file
func NewEngine(conf *config.ShareConf, vaultConf *config.VaultConf, opt *NewEngineOption) (*Engine, error) {
	if opt.Keys == nil || opt.Registry == nil || opt.FileStorage == nil || opt.ShareStorage == nil {
		return nil, errorx.New(errorx.ErrCodeConfig, "missing engine component")
	}

	e := &Engine{
		keys:         opt.Keys,
		registry:     opt.Registry,
		fileStorage:  opt.FileStorage,
		shareStorage: opt.ShareStorage,
		shareConf:    conf,
		vaultConf:    vaultConf,

		publicAddress: opt.PublicAddress,
	}
	e.monitor = newMonitor(conf, opt.Registry, opt.ShareStorage)
	return e, nil
}

// Start starts the background expiry sweep
func (e *Engine) Start(ctx context.Context) error {
	return e.monitor.Start(ctx)
}

// Close stops all inner services gracefully
//  could be called in main()
func (e *Engine) Close() {
	if e.monitor != nil {
		e.monitor.Close()
	}
	if e.registry != nil {
		e.registry.Close()
	}
}
