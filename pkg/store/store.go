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

package store

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// DefaultBackupSuffix is appended to a file path to name its backup.
const DefaultBackupSuffix = ".backup"

var (
	// ErrNotExist is returned for paths that are not there.
	ErrNotExist = errors.New("file does not exist")
	// ErrNoBackup is returned by Restore when no backup was ever taken.
	ErrNoBackup = errors.New("backup does not exist")
)

// 💾 BackupRecord ties an original path to its snapshot
type BackupRecord struct {
	Path       string `json:"path"`
	BackupPath string `json:"backup_path"`
	Size       int64  `json:"size"`
}

// FileManager handles all file access of a migration run
type FileManager interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)

	// WriteFileAtomic replaces the file so readers see the old or the new
	// content, never a mix.
	WriteFileAtomic(ctx context.Context, path string, content []byte) error

	// Backup snapshots what is currently stored at path. It returns only
	// once the snapshot is durable. An existing backup is never replaced;
	// later snapshots get a numbered name instead.
	Backup(ctx context.Context, path string) (*BackupRecord, error)

	// Restore copies the first backup of path back over it. The backup
	// itself is kept.
	Restore(ctx context.Context, path string) error
}
