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

package config

import (
	"github.com/spf13/viper"
)

// Share registry backends. In-memory records are lost on restart;
// that is an explicit deployment choice, not an accident.
const RegistryTypeMemory = "memory"
const RegistryTypeLevelDB = "leveldb"

var (
	serverConf *ServerConf
	vaultConf  *VaultConf
	shareConf  *ShareConf
	logConf    *Log
)

type ServerConf struct {
	Name          string
	ListenAddress string
	PublicAddress string
}

type VaultConf struct {
	// KeyPath holds one durable key file per user identity
	KeyPath string
	// FilePath holds the users' primary encrypted files
	FilePath string
	// SharePath holds ephemeral ciphertext copies minted for sharing
	SharePath string

	MaxUploadSize     int64
	AllowedExtensions []string
}

type ShareConf struct {
	RegistryType string
	RegistryPath string

	SweepIntervalSeconds int64
	DefaultTTLSeconds    int64
	MaxTTLSeconds        int64
	MinPasswordLength    int
}

type Log struct {
	Level string
	Path  string
}

// InitConfig, load and parses configuration file
func InitConfig(config string) error {
	v := viper.New()
	v.SetConfigFile(config)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	logConf = new(Log)
	if err := v.Sub("log").Unmarshal(logConf); err != nil {
		return err
	}
	serverConf = new(ServerConf)
	if err := v.Sub("server").Unmarshal(serverConf); err != nil {
		return err
	}
	vaultConf = new(VaultConf)
	if err := v.Sub("vault").Unmarshal(vaultConf); err != nil {
		return err
	}
	shareConf = new(ShareConf)
	if err := v.Sub("share").Unmarshal(shareConf); err != nil {
		return err
	}
	applyDefaults()
	return nil
}

func applyDefaults() {
	if vaultConf.MaxUploadSize == 0 {
		vaultConf.MaxUploadSize = 50 << 20
	}
	if shareConf.RegistryType == "" {
		shareConf.RegistryType = RegistryTypeMemory
	}
	if shareConf.SweepIntervalSeconds == 0 {
		shareConf.SweepIntervalSeconds = 60
	}
	if shareConf.DefaultTTLSeconds == 0 {
		shareConf.DefaultTTLSeconds = 86400
	}
	if shareConf.MaxTTLSeconds == 0 {
		shareConf.MaxTTLSeconds = 7 * 86400
	}
	if shareConf.MinPasswordLength == 0 {
		shareConf.MinPasswordLength = 8
	}
}

// GetServerConf
func GetServerConf() *ServerConf {
	return serverConf
}

// GetVaultConf
func GetVaultConf() *VaultConf {
	return vaultConf
}

// GetShareConf
func GetShareConf() *ShareConf {
	return shareConf
}

// GetLogConf
func GetLogConf() *Log {
	return logConf
}
