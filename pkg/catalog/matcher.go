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
	"regexp"
	"strings"
)

// 🎯 Match is a span of content found by a Matcher.
// Captures[0] is the whole matched text; further entries are submatches.
type Match struct {
	Start    int
	End      int
	Captures []string
}

// Matcher finds the first occurrence of a pattern at or after from.
// Implementations must be total: any input yields either a match or false.
type Matcher interface {
	Find(content string, from int) (Match, bool)
}

// 🔍 LiteralMatcher matches a fixed string
type LiteralMatcher struct {
	Text string
}

// Literal returns a matcher for text.
func Literal(text string) *LiteralMatcher {
	return &LiteralMatcher{Text: text}
}

func (m *LiteralMatcher) Find(content string, from int) (Match, bool) {
	if m == nil || m.Text == "" || from < 0 || from > len(content) {
		return Match{}, false
	}
	idx := strings.Index(content[from:], m.Text)
	if idx < 0 {
		return Match{}, false
	}
	start := from + idx
	return Match{Start: start, End: start + len(m.Text), Captures: []string{m.Text}}, true
}

// 🔍 RegexMatcher matches a regular expression. Empty matches are ignored.
type RegexMatcher struct {
	Pattern *regexp.Regexp
}

// Regex returns a matcher for an already compiled expression.
func Regex(re *regexp.Regexp) *RegexMatcher {
	return &RegexMatcher{Pattern: re}
}

func (m *RegexMatcher) Find(content string, from int) (Match, bool) {
	if m == nil || m.Pattern == nil {
		return Match{}, false
	}
	for _, loc := range findFrom(m.Pattern, content, from) {
		if loc[1] > loc[0] {
			return Match{Start: loc[0], End: loc[1], Captures: submatches(content, loc)}, true
		}
	}
	return Match{}, false
}

// 🧱 BlockMatcher matches a signature ending in an opening delimiter plus the
// delimited body up to the first point where nesting returns to zero.
//
// String literals, character literals and comments inside the body are
// skipped while counting. A body that never closes is not a match.
type BlockMatcher struct {
	Signature *regexp.Regexp
	Open      byte
	Close     byte

	// ConsumeLine extends the span over trailing blanks and one line break
	// so that removing the block does not leave an empty line behind.
	ConsumeLine bool
}

// Block returns a brace-delimited block matcher.
func Block(signature *regexp.Regexp, consumeLine bool) *BlockMatcher {
	return &BlockMatcher{Signature: signature, Open: '{', Close: '}', ConsumeLine: consumeLine}
}

func (m *BlockMatcher) Find(content string, from int) (Match, bool) {
	if m == nil || m.Signature == nil || m.Open == 0 || m.Close == 0 || m.Open == m.Close {
		return Match{}, false
	}
	for _, loc := range findFrom(m.Signature, content, from) {
		sigStart, sigEnd := loc[0], loc[1]
		if sigEnd <= sigStart || content[sigEnd-1] != m.Open {
			continue
		}
		end, ok := closeIndex(content, sigEnd, m.Open, m.Close)
		if !ok {
			continue
		}
		start := lineStart(content, sigStart)
		if start < from {
			start = sigStart
		}
		if m.ConsumeLine {
			end = lineEnd(content, end)
		}
		caps := submatches(content, loc)
		caps[0] = content[start:end]
		return Match{Start: start, End: end, Captures: caps}, true
	}
	return Match{}, false
}

// findFrom runs re over the whole content, so anchors and word boundaries
// see the real surroundings, and keeps matches starting at or after from.
func findFrom(re *regexp.Regexp, content string, from int) [][]int {
	if from < 0 || from > len(content) {
		return nil
	}
	all := re.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range all {
		if loc[0] >= from {
			return all[i:]
		}
	}
	return nil
}

// closeIndex returns the index just past the delimiter that closes the block
// whose opener sits right before pos.
func closeIndex(content string, pos int, open, close byte) (int, bool) {
	depth := 1
	for i := pos; i < len(content); i++ {
		switch c := content[i]; {
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case c == '"':
			verbatim := i > 0 && content[i-1] == '@'
			next, ok := skipString(content, i+1, verbatim)
			if !ok {
				return 0, false
			}
			i = next - 1
		case c == '\'':
			i = skipChar(content, i+1) - 1
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			nl := strings.IndexByte(content[i:], '\n')
			if nl < 0 {
				return 0, false
			}
			i += nl
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			endc := strings.Index(content[i+2:], "*/")
			if endc < 0 {
				return 0, false
			}
			i += 2 + endc + 1
		}
	}
	return 0, false
}

// skipString returns the index just past the closing quote.
func skipString(content string, i int, verbatim bool) (int, bool) {
	for i < len(content) {
		switch content[i] {
		case '\\':
			if !verbatim {
				i += 2
				continue
			}
		case '"':
			if verbatim && i+1 < len(content) && content[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1, true
		case '\n':
			if !verbatim {
				return 0, false
			}
		}
		i++
	}
	return 0, false
}

// skipChar returns the index just past a character literal, or i when the
// quote does not start one.
func skipChar(content string, i int) int {
	j := i
	if j < len(content) && content[j] == '\\' {
		j += 2
	} else {
		j++
	}
	for k := j; k < len(content) && k < j+6; k++ {
		switch content[k] {
		case '\'':
			return k + 1
		case '\n':
			return i
		}
	}
	return i
}

func lineStart(content string, i int) int {
	j := i
	for j > 0 && (content[j-1] == ' ' || content[j-1] == '\t') {
		j--
	}
	if j == 0 || content[j-1] == '\n' {
		return j
	}
	return i
}

func lineEnd(content string, i int) int {
	j := i
	for j < len(content) && (content[j] == ' ' || content[j] == '\t') {
		j++
	}
	switch {
	case strings.HasPrefix(content[j:], "\r\n"):
		return j + 2
	case strings.HasPrefix(content[j:], "\n"):
		return j + 1
	case j == len(content):
		return j
	}
	return i
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 && loc[2*i+1] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
