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

// Package verify runs structural checks over rewritten content.
//
// Findings are advisory. A Report never carries an error and callers are
// expected to write the file regardless; the report travels with the file's
// outcome so a human can look at it afterwards.
package verify

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue codes
const (
	CodeUnbalancedRegions   = "unbalanced-regions"
	CodeEmptyRegion         = "empty-region"
	CodeMissingClosingToken = "missing-closing-token"
)

// Defaults for brace-delimited, region-annotated sources.
const (
	DefaultOpenMarker   = "#region"
	DefaultCloseMarker  = "#endregion"
	DefaultClosingToken = "}"
)

// ⚠️ Issue is a single structural finding
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Report lists the findings for one file. Empty means no issues.
type Report []Issue

// OK reports whether there are no findings.
func (r Report) OK() bool {
	return len(r) == 0
}

// Has reports whether any finding carries code.
func (r Report) Has(code string) bool {
	for _, i := range r {
		if i.Code == code {
			return true
		}
	}
	return false
}

func (r Report) String() string {
	msgs := make([]string, len(r))
	for i, issue := range r {
		msgs[i] = issue.Message
	}
	return strings.Join(msgs, "; ")
}

// 🔍 Verifier checks marker balance, empty region shells and termination
type Verifier struct {
	OpenMarker   string
	CloseMarker  string
	ClosingToken string

	emptyRegion *regexp.Regexp
}

// New creates a verifier. Empty arguments take the defaults.
func New(open, close, closing string) *Verifier {
	if open == "" {
		open = DefaultOpenMarker
	}
	if close == "" {
		close = DefaultCloseMarker
	}
	if closing == "" {
		closing = DefaultClosingToken
	}
	return &Verifier{
		OpenMarker:   open,
		CloseMarker:  close,
		ClosingToken: closing,
		emptyRegion: regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(open) + `([^\r\n]*)\r?\n(?:[ \t]*\r?\n)*[ \t]*` +
			regexp.QuoteMeta(close)),
	}
}

// Default returns a verifier for #region / #endregion and braces.
func Default() *Verifier {
	return New("", "", "")
}

// Verify runs every check and collects all findings.
func (v *Verifier) Verify(content string) Report {
	switch {
	case v == nil:
		v = Default()
	case v.emptyRegion == nil:
		v = New(v.OpenMarker, v.CloseMarker, v.ClosingToken)
	}

	var report Report

	opens := strings.Count(content, v.OpenMarker)
	closes := strings.Count(content, v.CloseMarker)
	if opens != closes {
		report = append(report, Issue{
			Code:    CodeUnbalancedRegions,
			Message: fmt.Sprintf("unbalanced region markers: %d %s, %d %s", opens, v.OpenMarker, closes, v.CloseMarker),
		})
	}

	for _, m := range v.emptyRegion.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			name = "(unnamed)"
		}
		report = append(report, Issue{
			Code:    CodeEmptyRegion,
			Message: fmt.Sprintf("empty region left behind: %s", name),
		})
	}

	if !strings.HasSuffix(strings.TrimRight(content, " \t\r\n"), v.ClosingToken) {
		report = append(report, Issue{
			Code:    CodeMissingClosingToken,
			Message: fmt.Sprintf("content does not end with %q", v.ClosingToken),
		})
	}

	return report
}
