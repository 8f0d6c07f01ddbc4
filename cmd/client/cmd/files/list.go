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

package files

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

// listCmd represents the command to list the owner's files
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list files stored in the vault",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		metas, err := client.ListFiles(context.Background(), owner)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		for _, m := range metas {
			ctime := time.Unix(0, m.CreateTime).Format(timeTemplate)
			fmt.Printf("FileID: %s\nFileName: %s\nSize: %d\nCreateTime: %s\n\n",
				m.ID, m.FileName, m.Size, ctime)
		}
		fmt.Println("Files:", len(metas))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
