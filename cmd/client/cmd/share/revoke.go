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

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

// revokeCmd represents the command to invalidate a share ahead of its expiry
var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "revoke a share link",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		if err := client.RevokeShare(context.Background(), token, owner); err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		fmt.Println("OK")
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)

	revokeCmd.Flags().StringVarP(&owner, "owner", "u", "", "owner who issued the share")
	revokeCmd.Flags().StringVarP(&token, "token", "t", "", "token of the share")

	revokeCmd.MarkFlagRequired("owner")
	revokeCmd.MarkFlagRequired("token")
}
