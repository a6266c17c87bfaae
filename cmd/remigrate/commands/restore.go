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
	"gitlab.com/tozd/go/errors"
)

// NewRestoreCmd creates a new restore command
func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	var backupSuffix string

	cmd := &cobra.Command{
		Use:   "restore [paths...]",
		Short: "Copy backups back over migrated files",
		Long: `Restore replaces every given file with its first backup (path + suffix).
The backups themselves are kept, so a restore can be repeated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "restore").Logger().WithContext(cmd.Context())
			printer := report.FromContext(ctx)

			if cmd.Flags().Changed("backup-suffix") {
				opts.Config.BackupSuffix = backupSuffix
				if err := opts.Config.Validate(); err != nil {
					return errors.Errorf("validating options: %w", err)
				}
			}

			paths, err := resolvePaths(ctx, opts, args)
			if err != nil {
				return err
			}

			fm := store.NewDisk(opts.WorkDir, opts.Config.BackupSuffix)

			printer.Header("restore")

			failed, skipped := 0, 0
			for _, path := range paths {
				err := fm.Restore(ctx, path)
				switch {
				case err == nil:
					printer.Successf("restored %s", path)
				case errors.Is(err, store.ErrNoBackup):
					skipped++
					printer.Warningf("no backup for %s", path)
				default:
					failed++
					printer.Errorf("%s: %v", path, err)
				}
			}

			if failed > 0 {
				return errors.Errorf("%d of %d files could not be restored", failed, len(paths))
			}
			if skipped == len(paths) {
				return errors.Errorf("no backups found")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backupSuffix, "backup-suffix", store.DefaultBackupSuffix, "suffix of the backups to restore from")

	return cmd
}
