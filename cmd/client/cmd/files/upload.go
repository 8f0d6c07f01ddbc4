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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

var (
	input string
)

// uploadCmd represents the command to upload a file into the vault
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "save a file into the vault",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		f, err := os.OpenFile(input, os.O_RDONLY, 0600)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}
		defer f.Close()

		if filename == "" {
			filename = filepath.Base(input)
		}

		opt := httpclient.SaveOptions{
			Owner:    owner,
			FileName: filename,
		}

		resp, err := client.Save(context.Background(), f, opt)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		fmt.Println("FileID:", resp.FileID)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&input, "input", "i", "", "input file to upload")
	uploadCmd.Flags().StringVarP(&filename, "filename", "n", "", "name stored in the vault, defaults to the input file's name")

	uploadCmd.MarkFlagRequired("input")
}
