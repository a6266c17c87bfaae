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
	"context"

	"github.com/walteh/remigrate/cmd/remigrate/opts"
	"github.com/walteh/remigrate/pkg/targets"
	"gitlab.com/tozd/go/errors"
)

// resolvePaths combines command line paths with the config's globs.
func resolvePaths(ctx context.Context, opts *opts.RootOpts, args []string) ([]string, error) {
	paths, err := targets.Resolve(ctx, args, targets.Options{
		BaseDir:      opts.WorkDir,
		Include:      opts.Config.Include,
		Exclude:      opts.Config.Exclude,
		BackupSuffix: opts.Config.BackupSuffix,
	})
	if err != nil {
		return nil, errors.Errorf("resolving paths: %w", err)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no files to process: pass paths or set include in the config")
	}
	return paths, nil
}
