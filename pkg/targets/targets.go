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

// Package targets turns command line paths and include/exclude globs into
// the ordered list of files a migration run works on.
package targets

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Options controls path discovery
type Options struct {
	BaseDir      string   // Globs are matched below this directory; defaults to "."
	Include      []string // doublestar patterns, relative to BaseDir
	Exclude      []string // doublestar patterns applied to globbed paths
	BackupSuffix string   // Globbed files that look like backups are skipped
}

// Resolve returns explicit paths first, in the order given, followed by the
// sorted matches of the include patterns. Globbed paths are relative to
// BaseDir, like explicit relative paths are expected to be. Explicit paths
// are kept even when they do not exist, so the run can report them as
// missing. Paths naming the same file, relative to BaseDir or absolute, are
// kept once.
func Resolve(ctx context.Context, explicit []string, opts Options) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	base := opts.BaseDir
	if base == "" {
		base = "."
	}

	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		key := absKey(base, path)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, path)
	}

	for _, p := range explicit {
		add(p)
	}

	if len(opts.Include) == 0 {
		return out, nil
	}

	isBackup := backupMatcher(opts.BackupSuffix)
	fsys := os.DirFS(base)

	var globbed []string
	for _, pattern := range opts.Include {
		pattern = filepath.ToSlash(pattern)
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("globbing %q: %w", pattern, err)
		}
		logger.Debug().Str("pattern", pattern).Int("matches", len(matches)).Msg("expanded include pattern")

		for _, m := range matches {
			excluded, err := matchesAny(opts.Exclude, m)
			if err != nil {
				return nil, err
			}
			if excluded {
				logger.Debug().Str("file", m).Msg("file excluded by pattern")
				continue
			}
			if isBackup(m) {
				logger.Debug().Str("file", m).Msg("skipping backup file")
				continue
			}
			globbed = append(globbed, filepath.FromSlash(m))
		}
	}

	sort.Strings(globbed)
	for _, p := range globbed {
		add(p)
	}

	return out, nil
}

// absKey resolves path the way the disk store does, against base.
func absKey(base, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(filepath.ToSlash(pattern), path)
		if err != nil {
			return false, errors.Errorf("matching exclude pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// backupMatcher recognises name+suffix and the numbered name+suffix.N form.
func backupMatcher(suffix string) func(string) bool {
	if suffix == "" {
		return func(string) bool { return false }
	}
	numbered := regexp.MustCompile(regexp.QuoteMeta(suffix) + `\.\d+$`)
	return func(path string) bool {
		return strings.HasSuffix(path, suffix) || numbered.MatchString(path)
	}
}
