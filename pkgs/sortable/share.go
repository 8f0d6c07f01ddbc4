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

package sortable

import (
	"github.com/protector/vaultd/engine/types"
	"github.com/protector/vaultd/registry"
)

// descending order
type ShareRecords []registry.Record

func (s ShareRecords) Less(i, j int) bool {
	return s[i].CreateTime > s[j].CreateTime
}
func (s ShareRecords) Len() int {
	return len(s)
}
func (s ShareRecords) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

type FileMetas []types.FileMeta

func (f FileMetas) Less(i, j int) bool {
	return f[i].CreateTime > f[j].CreateTime
}
func (f FileMetas) Len() int {
	return len(f)
}
func (f FileMetas) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
}
