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

// listCmd represents the command to list the owner's live shares
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list live shares issued by an owner",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		shares, err := client.ListShares(context.Background(), owner)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		for _, s := range shares {
			fmt.Printf("Token: %s\nFileName: %s\nCreateTime: %s\nExpireTime: %s\nOneShot: %v\nRedeemCount: %d\n\n",
				s.Token, s.FileName,
				time.Unix(0, s.CreateTime).Format(timeTemplate),
				time.Unix(0, s.ExpireTime).Format(timeTemplate),
				s.OneShot, s.RedeemCount)
		}
		fmt.Println("Shares:", len(shares))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&owner, "owner", "u", "", "owner of the shares")

	listCmd.MarkFlagRequired("owner")
}
