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

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/protector/vaultd/config"
	"github.com/protector/vaultd/engine"
	"github.com/protector/vaultd/errorx"
	"github.com/protector/vaultd/keystore"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/server"
	localstorage "github.com/protector/vaultd/storage/local"
)

var (
	configPath string
)

func appExit(err error) {
	logrus.WithError(err).Error("app exit")
	os.Exit(-1)
}

func init() {
	flag.StringVarP(&configPath, "conf", "c", "conf/config.toml",
		"path of the configuration file")
	flag.Parse()

	logrus.SetLevel(logrus.DebugLevel)

	config.InitConfig(configPath)
}

// main the function where execution of the program begins
func main() {

	logStd, level := initLog(config.GetLogConf())
	logrus.SetOutput(logStd)
	logrus.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, os.Kill, syscall.SIGTERM)
	go func() {
		<-quit
		logrus.Info("stopping ...")
		cancel()
	}()

	serverConf := config.GetServerConf()
	if serverConf == nil || serverConf.ListenAddress == "" {
		appExit(errors.New("missing config: server.listenAddress"))
	}
	vaultConf := config.GetVaultConf()
	shareConf := config.GetShareConf()

	e := getVaultEngine(serverConf, vaultConf, shareConf)
	if err := e.Start(ctx); err != nil {
		appExit(err)
	}
	defer e.Close()

	// start http server
	if srv, err := server.New(serverConf.Name, serverConf.ListenAddress, e); err != nil {
		logrus.WithError(err).Error("failed to initiate server")
		cancel()
	} else {
		if err := srv.Serve(ctx); err != nil && err != context.Canceled {
			logrus.WithError(err).Error("failed to start server")
			cancel()
		}
	}
}

// getVaultEngine initiates the vault Engine
func getVaultEngine(serverConf *config.ServerConf, vaultConf *config.VaultConf, shareConf *config.ShareConf) *engine.Engine {
	engineOption := engine.NewEngineOption{
		PublicAddress: serverConf.PublicAddress,
	}
	engineOption.Keys = mustGetKeyStore(vaultConf)
	engineOption.Registry = mustGetRegistry(shareConf)
	engineOption.FileStorage = mustGetStorage(vaultConf.FilePath, "vault.filePath")
	engineOption.ShareStorage = mustGetStorage(vaultConf.SharePath, "vault.sharePath")

	e, err := engine.NewEngine(shareConf, vaultConf, &engineOption)
	if err != nil {
		appExit(err)
	}
	return e
}

// mustGetKeyStore initiates the per-user key store
func mustGetKeyStore(conf *config.VaultConf) engine.KeyStore {
	if conf == nil || conf.KeyPath == "" {
		appExit(errors.New("missing config: vault.keyPath"))
	}
	ks, err := keystore.New(conf.KeyPath)
	if err != nil {
		appExit(errorx.Wrap(err, "failed to create key store"))
	}
	return ks
}

// mustGetRegistry initiates the share registry
//  an in-memory map and a leveldb backed one are both supported
func mustGetRegistry(conf *config.ShareConf) registry.Registry {
	var r registry.Registry
	switch conf.RegistryType {
	case config.RegistryTypeMemory:
		r = registry.NewMemory()
	case config.RegistryTypeLevelDB:
		var err error
		r, err = registry.NewLevelDB(conf.RegistryPath)
		if err != nil {
			appExit(errorx.Wrap(err, "failed to create registry"))
		}
	default:
		appExit(errors.New("invalid registry type: " + conf.RegistryType))
	}
	return r
}

// mustGetStorage initiates local blob storage
func mustGetStorage(rootPath, confKey string) *localstorage.Storage {
	if rootPath == "" {
		appExit(errors.New("missing config: " + confKey))
	}
	s, err := localstorage.New(rootPath)
	if err != nil {
		appExit(errorx.Wrap(err, "failed to create storage"))
	}
	return s
}

// initLog loads logger
func initLog(conf *config.Log) (io.Writer, logrus.Level) {
	if conf == nil {
		appExit(errors.New("missing log config"))
	}
	path := conf.Path
	if path == "" {
		return os.Stderr, logrus.DebugLevel
	}
	if strings.LastIndex(path, "/") != len([]rune(path))-1 {
		path = path + "/"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.Mkdir(path, 0777); err != nil {
			return os.Stderr, logrus.DebugLevel
		}
	}
	fileName := path + "server.log"

	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	writer, _ := rotatelogs.New(
		fileName+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(fileName),
		rotatelogs.WithMaxAge(time.Duration(720)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(24)*time.Hour),
	)

	return writer, level
}
