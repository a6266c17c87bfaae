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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/remigrate/cmd/remigrate/opts"
	"github.com/walteh/remigrate/pkg/report"
	"github.com/walteh/remigrate/pkg/store"
	"github.com/walteh/remigrate/pkg/verify"
	"gitlab.com/tozd/go/errors"
)

// 🔍 CheckResult is the verification outcome of one file
type CheckResult struct {
	Path   string        `json:"path"`
	Issues verify.Report `json:"issues"`
	Error  string        `json:"error,omitempty"`
}

// NewCheckCmd creates a new check command
func NewCheckCmd(opts *opts.RootOpts) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Verify the structure of source files without rewriting them",
		Long: `Check runs the structural verifier over every file: balanced region
markers, no empty region shells and the expected closing token. Nothing is
written. It exits non-zero when any file has findings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "check").Logger().WithContext(cmd.Context())
			printer := report.FromContext(ctx)

			paths, err := resolvePaths(ctx, opts, args)
			if err != nil {
				return err
			}

			fm := store.NewDisk(opts.WorkDir, opts.Config.BackupSuffix)
			v := opts.Config.Verifier()

			if !jsonOutput {
				printer.Header("check")
			}

			results := make([]CheckResult, 0, len(paths))
			withIssues, unreadable := 0, 0
			for _, path := range paths {
				content, err := fm.ReadFile(ctx, path)
				if err != nil {
					unreadable++
					results = append(results, CheckResult{Path: path, Error: err.Error()})
					if !jsonOutput {
						printer.Errorf("%s: %v", path, err)
					}
					continue
				}

				issues := v.Verify(string(content))
				if !issues.OK() {
					withIssues++
				}
				results = append(results, CheckResult{Path: path, Issues: issues})
				if !jsonOutput {
					printer.Check(ctx, path, issues)
				}
			}

			if jsonOutput {
				if err := printer.JSON(results); err != nil {
					return err
				}
			}

			switch {
			case unreadable > 0:
				return errors.Errorf("%d files could not be read", unreadable)
			case withIssues > 0:
				return errors.Errorf("%d of %d files: %w", withIssues, len(paths), ErrVerificationIssues)
			}

			if !jsonOutput {
				printer.Successf("%d files verified", len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the findings as JSON")

	return cmd
}
