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

package strings

import "testing"

func TestIsContain(t *testing.T) {
	items := []string{"pdf", "txt", "zip"}
	if !IsContain(items, "pdf") {
		t.Errorf("pdf should be contained")
	}
	if IsContain(items, "exe") {
		t.Errorf("exe should not be contained")
	}
	if IsContain(nil, "pdf") {
		t.Errorf("nothing is contained in an empty list")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":            "report.pdf",
		"../../etc/passwd":      "passwd",
		"..\\..\\boot.ini":      "boot.ini",
		".hidden":               "hidden",
		"my file (final).doc":   "my_file__final_.doc",
		"/absolute/path/a.txt":  "a.txt",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"report.PDF": "pdf",
		"archive.tar.gz": "gz",
		"noext":      "",
	}
	for in, want := range cases {
		if got := FileExtension(in); got != want {
			t.Errorf("FileExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
