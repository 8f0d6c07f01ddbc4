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
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	httpclient "github.com/protector/vaultd/client/http"
)

const (
	genPasswordLength  = 12
	genPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	fileID     string
	filename   string
	input      string
	ttlSeconds int64
	oneShot    bool
)

// issueCmd represents the command to mint a share link,
// either for an already stored file or for a local one
var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "mint a password-gated share link",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := httpclient.New(host)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		if fileID == "" && input == "" {
			fmt.Println("use --fileId for a stored file or --input for a local one")
			return
		}

		generated := false
		if password == "" {
			password, err = genPassword()
			if err != nil {
				fmt.Printf("err：%v\n", err)
				return
			}
			generated = true
		}

		var content io.Reader
		if input != "" {
			f, err := os.OpenFile(input, os.O_RDONLY, 0600)
			if err != nil {
				fmt.Printf("err：%v\n", err)
				return
			}
			defer f.Close()
			content = f
			if filename == "" {
				filename = filepath.Base(input)
			}
		}

		opt := httpclient.IssueOptions{
			Owner:      owner,
			FileID:     fileID,
			FileName:   filename,
			Password:   password,
			TTLSeconds: ttlSeconds,
			OneShot:    oneShot,
		}

		resp, err := client.Issue(context.Background(), content, opt)
		if err != nil {
			fmt.Printf("err：%v\n", err)
			return
		}

		fmt.Println("Token:", resp.Token)
		fmt.Println("Link:", resp.Link)
		if generated {
			fmt.Println("Password:", password)
		}
	},
}

// genPassword draws a random password from a secure source
func genPassword() (string, error) {
	max := big.NewInt(int64(len(genPasswordCharset)))
	bs := make([]byte, genPasswordLength)
	for i := range bs {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		bs[i] = genPasswordCharset[n.Int64()]
	}
	return string(bs), nil
}

func init() {
	rootCmd.AddCommand(issueCmd)

	issueCmd.Flags().StringVarP(&owner, "owner", "u", "", "owner issuing the share")
	issueCmd.Flags().StringVar(&fileID, "fileId", "", "id of an already stored file to share")
	issueCmd.Flags().StringVarP(&input, "input", "i", "", "local file to share directly")
	issueCmd.Flags().StringVarP(&filename, "filename", "n", "", "name shown to the recipient")
	issueCmd.Flags().StringVarP(&password, "password", "p", "", "password gating the link, generated when omitted")
	issueCmd.Flags().Int64Var(&ttlSeconds, "ttl", 0, "lifetime of the link in seconds, server default when omitted")
	issueCmd.Flags().BoolVar(&oneShot, "oneShot", false, "burn the link after the first redemption")

	issueCmd.MarkFlagRequired("owner")
}
