// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"os"
	"strconv"
)

// ✏️ Replacer produces the text that takes the place of a match
type Replacer interface {
	Replace(m Match) string
}

type literalReplacer string

func (r literalReplacer) Replace(Match) string {
	return string(r)
}

// Text always replaces with s.
func Text(s string) Replacer {
	return literalReplacer(s)
}

// Remove replaces with nothing.
func Remove() Replacer {
	return literalReplacer("")
}

type templateReplacer string

func (r templateReplacer) Replace(m Match) string {
	return os.Expand(string(r), func(key string) string {
		if key == "$" {
			return "$"
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(m.Captures) {
			return ""
		}
		return m.Captures[idx]
	})
}

// Template expands $N and ${N} with the match captures. $$ is a literal $.
func Template(tmpl string) Replacer {
	return templateReplacer(tmpl)
}
