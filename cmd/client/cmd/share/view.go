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

package share

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

// viewCmd represents the command to inspect a share without redeeming it
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "view a share's metadata, no password needed",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		meta, err := client.ViewShare(context.Background(), token)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		fmt.Println("FileName:", meta.FileName)
		fmt.Println("Owner:", meta.Owner)
		fmt.Println("CreateTime:", time.Unix(0, meta.CreateTime).Format(timeTemplate))
		fmt.Println("ExpireTime:", time.Unix(0, meta.ExpireTime).Format(timeTemplate))
		fmt.Println("OneShot:", meta.OneShot)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&token, "token", "t", "", "token of the share")

	viewCmd.MarkFlagRequired("token")
}
