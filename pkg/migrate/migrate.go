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

// Package migrate runs the rewrite pipeline over a batch of files.
//
// For every path: read, transform, and when a rule fired, back up the file,
// write the candidate and verify what was written. A failure in one file is
// recorded in its FileResult and the batch carries on.
package migrate

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/walteh/remigrate/pkg/rewrite"
	"github.com/walteh/remigrate/pkg/store"
	"github.com/walteh/remigrate/pkg/verify"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔧 Options contains configuration for the runner
type Options struct {
	// Catalog holds the rewrite rules
	Catalog *catalog.Catalog
	// Store reads, writes and backs up files
	Store store.FileManager
	// Verifier checks written content; defaults to verify.Default()
	Verifier *verify.Verifier
	// Workers is the number of files processed at once; defaults to 1
	Workers int
	// DryRun computes diffs without backing up or writing
	DryRun bool
}

// 🏃 Runner executes migration batches
type Runner struct {
	transformer *rewrite.Transformer
	store       store.FileManager
	verifier    *verify.Verifier
	workers     int
	dryRun      bool
}

// 🏭 New creates a new runner with the given options
func New(opts Options) (*Runner, error) {
	if opts.Catalog == nil {
		return nil, errors.Errorf("catalog is required")
	}
	if opts.Store == nil {
		return nil, errors.Errorf("store is required")
	}
	if err := opts.Catalog.Validate(); err != nil {
		return nil, errors.Errorf("validating catalog: %w", err)
	}
	if opts.Verifier == nil {
		opts.Verifier = verify.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		transformer: rewrite.New(opts.Catalog),
		store:       opts.Store,
		verifier:    opts.Verifier,
		workers:     opts.Workers,
		dryRun:      opts.DryRun,
	}, nil
}

// Run processes paths and returns the aggregated outcome.
//
// Cancelling ctx stops the batch between files: a file whose pipeline has
// started always runs to completion. When that happens the outcome holds
// the files that did run, Aborted is set and the context error is returned
// alongside it.
func (r *Runner) Run(ctx context.Context, paths []string) (*BatchOutcome, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("files", len(paths)).Int("workers", r.workers).Bool("dry_run", r.dryRun).Msg("starting migration")

	results := make([]*FileResult, len(paths))

	if r.workers == 1 {
		for i, path := range paths {
			if ctx.Err() != nil {
				break
			}
			res := r.processFile(ctx, path)
			results[i] = &res
		}
	} else {
		// the group context is not handed to the pipelines: a started file
		// must not see the cancellation
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i, path := range paths {
			if ctx.Err() != nil {
				break
			}
			i, path := i, path
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				res := r.processFile(ctx, path)
				results[i] = &res
				return nil
			})
		}
		_ = g.Wait()
	}

	outcome := &BatchOutcome{DryRun: r.dryRun, Results: make([]FileResult, 0, len(paths))}
	for _, res := range results {
		if res == nil {
			outcome.Aborted = true
			continue
		}
		outcome.add(*res)
	}

	logger.Debug().
		Int("processed", outcome.Processed).
		Int("changed", outcome.Changed).
		Int("unchanged", outcome.Unchanged).
		Int("missing", outcome.Missing).
		Int("failed", outcome.Failed).
		Bool("aborted", outcome.Aborted).
		Msg("migration finished")

	if outcome.Aborted {
		return outcome, errors.Errorf("migration aborted after %d of %d files: %w", outcome.Processed, len(paths), context.Cause(ctx))
	}
	return outcome, nil
}

// 📄 processFile runs the pipeline for one path. It never panics on bad
// content and always returns a result.
func (r *Runner) processFile(ctx context.Context, path string) FileResult {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()
	result := FileResult{Path: path}

	exists, err := r.store.FileExists(ctx, path)
	if err != nil {
		return failed(result, StageRead, errors.Errorf("checking %s: %w", path, err))
	}
	if !exists {
		logger.Debug().Msg("file not found")
		result.Status = StatusMissing
		result.Err = errors.Errorf("%s: %w", path, store.ErrNotExist)
		return result
	}

	original, err := r.store.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			result.Status = StatusMissing
			result.Err = err
			return result
		}
		return failed(result, StageRead, err)
	}

	transformed := r.transformer.Transform(string(original))
	result.Fired = transformed.Fired
	result.Replacements = transformed.Replacements

	if !transformed.Changed {
		logger.Debug().Msg("no rule matched")
		result.Status = StatusUnchanged
		return result
	}

	result.Status = StatusChanged

	if r.dryRun {
		result.Diff = unifiedDiff(path, string(original), transformed.Content)
		result.Issues = r.verifier.Verify(transformed.Content)
		return result
	}

	// no write without a durable copy of what is on disk now
	backup, err := r.store.Backup(ctx, path)
	if err != nil {
		return failed(result, StageBackup, errors.Errorf("backing up %s: %w", path, err))
	}
	result.Backup = backup

	if err := r.store.WriteFileAtomic(ctx, path, []byte(transformed.Content)); err != nil {
		return failed(result, StageWrite, errors.Errorf("writing %s: %w", path, err))
	}

	written, err := r.store.ReadFile(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Msg("re-reading written file, verifying candidate instead")
		written = []byte(transformed.Content)
	}
	result.Issues = r.verifier.Verify(string(written))

	logger.Debug().
		Strs("fired", result.Fired).
		Int("issues", len(result.Issues)).
		Str("backup", backup.BackupPath).
		Msg("file migrated")

	return result
}

func failed(result FileResult, stage Stage, err error) FileResult {
	result.Status = StatusFailed
	result.Stage = stage
	result.Err = err
	return result
}

func unifiedDiff(path, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (migrated)",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(diff, "\n")
}
