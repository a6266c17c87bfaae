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

package rewrite

import (
	"strings"

	"github.com/walteh/remigrate/pkg/catalog"
)

// Result contains the outcome of a transformation
type Result struct {
	// Content is the normalized candidate content
	Content string

	// Changed is true when at least one rule altered the content.
	// Whitespace normalization alone never sets it.
	Changed bool

	// Fired lists the IDs of rules that altered the content, in order
	Fired []string

	// Replacements is the number of spans rewritten
	Replacements int
}

// Transformer applies a catalog to file content. It does no I/O.
type Transformer struct {
	catalog *catalog.Catalog
}

// New creates a new Transformer
func New(c *catalog.Catalog) *Transformer {
	return &Transformer{catalog: c}
}

// Transform applies every rule in catalog order and normalizes the file
// ending.
func (t *Transformer) Transform(content string) *Result {
	result := &Result{}

	current := content
	for _, rule := range t.catalog.Rules() {
		if !rule.Applicable(current) {
			continue
		}

		next, count := apply(rule, current)
		if next == current {
			continue
		}

		result.Changed = true
		result.Fired = append(result.Fired, rule.ID)
		result.Replacements += count
		current = next
	}

	result.Content = Normalize(current)
	return result
}

// Normalize strips trailing whitespace and terminates content with exactly
// one newline.
func Normalize(content string) string {
	return strings.TrimRight(content, " \t\r\n") + "\n"
}

// apply runs one rule. Block rules rewrite the first match only, token rules
// every non-overlapping match from left to right.
func apply(rule catalog.Rule, content string) (string, int) {
	if rule.Class.IsBlock() {
		m, ok := rule.Matcher.Find(content, 0)
		if !ok || m.Start < 0 || m.End < m.Start || m.End > len(content) {
			return content, 0
		}
		return content[:m.Start] + rule.Replacer.Replace(m) + content[m.End:], 1
	}

	var (
		b     strings.Builder
		last  int
		count int
	)
	for last <= len(content) {
		m, ok := rule.Matcher.Find(content, last)
		if !ok || m.Start < last || m.End <= m.Start || m.End > len(content) {
			break
		}
		b.WriteString(content[last:m.Start])
		b.WriteString(rule.Replacer.Replace(m))
		last = m.End
		count++
	}
	if count == 0 {
		return content, 0
	}
	b.WriteString(content[last:])
	return b.String(), count
}
