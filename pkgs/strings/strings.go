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

import (
	"path"
	"strings"
)

// IsContain checks if item exists in a list
func IsContain(items []string, item string) bool {
	for _, every := range items {
		if every == item {
			return true
		}
	}
	return false
}

// SanitizeFileName reduces an uploaded file name to a safe base name:
// path separators are stripped and hidden-file dots removed
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimLeft(name, ".")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return name
}

// FileExtension returns the lowercase extension without the dot, if any
func FileExtension(name string) string {
	ext := path.Ext(name)
	if len(ext) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
