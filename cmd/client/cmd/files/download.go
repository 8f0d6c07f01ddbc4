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
	"io"
	"os"

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

var (
	output string
)

// downloadCmd represents the command to download a file from the vault
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "download a file from the vault",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		opt := httpclient.FetchOptions{
			Owner:  owner,
			FileID: fileID,
		}

		reader, err := client.Fetch(context.Background(), opt)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}
		defer reader.Close()

		f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}
		defer f.Close()

		if _, err := io.Copy(f, reader); err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		fmt.Println("OK")
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&fileID, "fileId", "", "id of the file to download")
	downloadCmd.Flags().StringVarP(&output, "output", "o", "", "output file path")

	downloadCmd.MarkFlagRequired("fileId")
	downloadCmd.MarkFlagRequired("output")
}
