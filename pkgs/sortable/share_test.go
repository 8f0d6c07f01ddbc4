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
	"sort"
	"testing"
)

func TestShareRecords(t *testing.T) {
	recs := ShareRecords{
		{Token: "a", CreateTime: 10},
		{Token: "b", CreateTime: 30},
		{Token: "c", CreateTime: 20},
	}
	sort.Sort(recs)

	want := []string{"b", "c", "a"}
	for i, r := range recs {
		if r.Token != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.Token, want[i])
		}
	}
}

func TestFileMetas(t *testing.T) {
	metas := FileMetas{
		{ID: "a", CreateTime: 1},
		{ID: "b", CreateTime: 3},
		{ID: "c", CreateTime: 2},
	}
	sort.Sort(metas)

	want := []string{"b", "c", "a"}
	for i, m := range metas {
		if m.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, m.ID, want[i])
		}
	}
}
