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

package types

// SaveResponse response of file/save
type SaveResponse struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// ShareEntry one share owned by a user, the password hash is never exposed
type ShareEntry struct {
	Token       string `json:"token"`
	FileName    string `json:"file_name"`
	CreateTime  int64  `json:"create_time"`
	ExpireTime  int64  `json:"expire_time"`
	OneShot     bool   `json:"one_shot"`
	RedeemCount int64  `json:"redeem_count"`
}

// HealthResponse response of health probe
type HealthResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Time   int64  `json:"time"`
}
