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
	"time"

	"github.com/cjqpker/slidewindow"
	"github.com/sirupsen/logrus"

	"github.com/protector/vaultd/config"
	"github.com/protector/vaultd/registry"
	"github.com/protector/vaultd/storage"
)

const defaultSweepConcurrency = 10

// Monitor periodically reclaims expired shares, both the registry
// records and their ephemeral ciphertext copies.
// It only ever touches the share storage, never the primary files.
type Monitor struct {
	registry     registry.Registry
	shareStorage storage.Storage

	sweepInterval time.Duration

	doneSweepC chan struct{} //doneSweepC will be closed when loop breaks
}

func newMonitor(conf *config.ShareConf, reg registry.Registry, shareStorage storage.Storage) *Monitor {
	interval := time.Duration(conf.SweepIntervalSeconds) * time.Second
	if interval == 0 {
		interval = time.Minute
	}

	logger.WithField("sweep-interval", interval).Info("monitor initialize...")

	return &Monitor{
		registry:      reg,
		shareStorage:  shareStorage,
		sweepInterval: interval,
	}
}

// Start starts the background sweep loop
func (m *Monitor) Start(ctx context.Context) error {
	go m.sweepLoop(ctx)
	return nil
}

// Close waits for the sweep loop to stop
func (m *Monitor) Close() {
	if m.doneSweepC == nil {
		return
	}

	logger.Info("stops sweeping expired shares ...")

	select {
	case <-m.doneSweepC:
		return
	default:
	}

	<-m.doneSweepC
}

// sweepLoop cleans expired shares
func (m *Monitor) sweepLoop(ctx context.Context) {
	l := logger.WithField("runner", "sweep loop")
	defer l.Info("sweep loop stopped")

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	m.doneSweepC = make(chan struct{})
	defer close(m.doneSweepC)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := m.sweepOnce(ctx); err != nil {
			l.WithError(err).Warn("failed to sweep expired shares")
		}
	}
}

// sweepOnce drops expired registry records and deletes their share copies
func (m *Monitor) sweepOnce(ctx context.Context) error {
	swept, err := m.registry.Sweep(time.Now().UnixNano())
	if err != nil {
		return err
	}
	if len(swept) == 0 {
		return nil
	}

	sw := slidewindow.SlideWindow{
		Total:       uint64(len(swept)),
		Concurrency: defaultSweepConcurrency,
	}
	sw.Init = func(ctx context.Context, s *slidewindow.Session) error {
		return nil
	}
	sw.Task = func(ctx context.Context, s *slidewindow.Session) error {
		rec := swept[int(s.Index())]
		if _, err := m.shareStorage.Delete(rec.BlobID); err != nil {
			logger.WithField("blob_id", rec.BlobID).WithError(err).Warn("failed to delete share copy")
		}
		return nil
	}
	sw.Done = func(ctx context.Context, s *slidewindow.Session) error {
		return nil
	}
	if err := sw.Start(ctx); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"swept":     len(swept),
		"update_at": time.Now().Format("2006-01-02 15:04:05"),
	}).Info("successfully swept dead shares")
	return nil
}
