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
	"github.com/walteh/remigrate/pkg/migrate"
	"github.com/walteh/remigrate/pkg/report"
	"github.com/walteh/remigrate/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// ErrVerificationIssues is returned by run --strict and check when any file
// has structural findings.
var ErrVerificationIssues = errors.New("verification reported issues")

// NewRunCmd creates a new run command
func NewRunCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		dryRun       bool
		workers      int
		backupSuffix string
		adapter      string
		jsonOutput   bool
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Migrate source files to the new interface",
		Long: `Run rewrites every given file, plus the files matched by the config's
include globs, to the new interface.
For each file it will:
1. Apply the rule catalog in order
2. Back up the original next to it
3. Write the migrated content
4. Verify the result and report any structural findings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())
			printer := report.FromContext(ctx)
			cfg := opts.Config

			// Flags win over the config file
			flags := cmd.Flags()
			if flags.Changed("dry-run") {
				cfg.DryRun = dryRun
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("backup-suffix") {
				cfg.BackupSuffix = backupSuffix
			}
			if flags.Changed("adapter") {
				cfg.Adapter = adapter
			}
			if err := cfg.Validate(); err != nil {
				return errors.Errorf("validating options: %w", err)
			}

			paths, err := resolvePaths(ctx, opts, args)
			if err != nil {
				return err
			}

			c, err := cfg.Catalog()
			if err != nil {
				return errors.Errorf("building catalog: %w", err)
			}

			runner, err := migrate.New(migrate.Options{
				Catalog:  c,
				Store:    store.NewDisk(opts.WorkDir, cfg.BackupSuffix),
				Verifier: cfg.Verifier(),
				Workers:  cfg.Workers,
				DryRun:   cfg.DryRun,
			})
			if err != nil {
				return errors.Errorf("creating runner: %w", err)
			}

			if !jsonOutput {
				if cfg.DryRun {
					printer.Header("dry run")
				} else {
					printer.Header("run")
				}
			}

			outcome, runErr := runner.Run(ctx, paths)
			if outcome != nil {
				if jsonOutput {
					if err := printer.JSON(outcome); err != nil {
						return err
					}
				} else {
					for _, r := range outcome.Results {
						printer.FileResult(ctx, r, outcome.DryRun)
					}
					if err := printer.Summary(outcome); err != nil {
						return err
					}
				}
			}

			switch {
			case runErr != nil:
				return errors.Errorf("running migration: %w", runErr)
			case outcome.Failed > 0:
				return errors.Errorf("%d of %d files failed", outcome.Failed, outcome.Processed)
			case strict && outcome.HasIssues():
				return errors.Errorf("%d files: %w", outcome.Issues, ErrVerificationIssues)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the diff of every change without writing")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "number of files migrated at once")
	cmd.Flags().StringVar(&backupSuffix, "backup-suffix", store.DefaultBackupSuffix, "suffix appended to backup file names")
	cmd.Flags().StringVar(&adapter, "adapter", "", "type wrapped around raw canvas assignments")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the outcome as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when verification reports issues")

	return cmd
}
