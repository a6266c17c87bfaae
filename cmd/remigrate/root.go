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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/remigrate/cmd/remigrate/commands"
	"github.com/walteh/remigrate/cmd/remigrate/opts"
	"github.com/walteh/remigrate/pkg/config"
	"github.com/walteh/remigrate/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// newRootCmd builds the command tree. Config is loaded once flags are parsed.
func newRootCmd(printer *report.Printer) *cobra.Command {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "remigrate",
		Short: "Migrate source files from an old interface to a new one",
		Long: `remigrate finds old-interface idioms in source files by pattern matching,
rewrites them to the new interface, verifies the structure of every rewritten
file and keeps a backup of the original next to it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), rootOpts.Debug)
			ctx = report.NewContext(ctx, printer)
			cmd.SetContext(ctx)

			if err := loadConfig(ctx, rootOpts); err != nil {
				return err
			}
			zerolog.Ctx(ctx).Debug().Str("config", rootOpts.Config.String()).Msg("configuration loaded")
			return nil
		},
	}

	// Add shared flags
	addRootFlags(rootCmd, rootOpts)

	// Add commands
	rootCmd.AddCommand(
		commands.NewRunCmd(rootOpts),
		commands.NewCheckCmd(rootOpts),
		commands.NewRestoreCmd(rootOpts),
		commands.NewRulesCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "config file path (default: .remigrate.{hcl,yaml,yml,json} if present)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&o.WorkDir, "dir", ".", "directory paths and globs are relative to")
}

// loadConfig loads the explicit config file, or discovers one in WorkDir
func loadConfig(ctx context.Context, o *opts.RootOpts) error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.Load(ctx, o.ConfigFile)
	} else {
		cfg, err = config.Discover(ctx, o.WorkDir)
	}
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.Config = cfg
	return nil
}

// setupLogging configures zerolog based on flags
func setupLogging(ctx context.Context, debug bool) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
