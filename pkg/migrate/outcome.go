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

package migrate

import (
	"encoding/json"

	"github.com/walteh/remigrate/pkg/store"
	"github.com/walteh/remigrate/pkg/verify"
)

// 📊 Status is the outcome of one file
type Status int

const (
	StatusUnknown   Status = iota
	StatusUnchanged        // no rule fired, file untouched
	StatusChanged          // rules fired; written unless dry run
	StatusMissing          // path does not exist
	StatusFailed           // read, backup or write failed
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusChanged:
		return "changed"
	case StatusMissing:
		return "missing"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageNone   Stage = ""
	StageRead   Stage = "read"
	StageBackup Stage = "backup"
	StageWrite  Stage = "write"
)

// 📄 FileResult is the outcome of one path
type FileResult struct {
	Path         string              `json:"path"`
	Status       Status              `json:"status"`
	Stage        Stage               `json:"stage,omitempty"`
	Fired        []string            `json:"fired,omitempty"`
	Replacements int                 `json:"replacements,omitempty"`
	Backup       *store.BackupRecord `json:"backup,omitempty"`
	Issues       verify.Report       `json:"issues,omitempty"`
	Diff         string              `json:"diff,omitempty"`
	Err          error               `json:"-"`
}

// Written reports whether new content reached the file.
func (r FileResult) Written() bool {
	return r.Status == StatusChanged && r.Backup != nil
}

func (r FileResult) MarshalJSON() ([]byte, error) {
	type plain FileResult
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// 📦 BatchOutcome aggregates a run
type BatchOutcome struct {
	Processed int          `json:"processed"`
	Changed   int          `json:"changed"`
	Unchanged int          `json:"unchanged"`
	Missing   int          `json:"missing"`
	Failed    int          `json:"failed"`
	Issues    int          `json:"issues"`
	DryRun    bool         `json:"dry_run,omitempty"`
	Aborted   bool         `json:"aborted,omitempty"`
	Results   []FileResult `json:"results"`
}

// add records a result and bumps the counters.
func (o *BatchOutcome) add(r FileResult) {
	o.Results = append(o.Results, r)
	o.Processed++
	switch r.Status {
	case StatusChanged:
		o.Changed++
	case StatusUnchanged:
		o.Unchanged++
	case StatusMissing:
		o.Missing++
	case StatusFailed:
		o.Failed++
	}
	if len(r.Issues) > 0 {
		o.Issues++
	}
}

// HasIssues reports whether any file got verification findings.
func (o *BatchOutcome) HasIssues() bool {
	return o.Issues > 0
}
