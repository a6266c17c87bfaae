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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Disk implements FileManager on the local file system
type Disk struct {
	baseDir string // Base directory for relative paths
	suffix  string // Backup suffix
}

// NewDisk creates a disk file manager. Relative paths are resolved against
// baseDir; an empty baseDir leaves them relative to the working directory.
func NewDisk(baseDir, suffix string) *Disk {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	if baseDir != "" {
		baseDir = filepath.Clean(baseDir)
	}
	return &Disk{baseDir: baseDir, suffix: suffix}
}

// 🔒 getAbsPath returns the path to use for a given path
func (d *Disk) getAbsPath(path string) string {
	if d.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.baseDir, path)
}

func (d *Disk) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(d.getAbsPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("reading %s: %w", path, ErrNotExist)
		}
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

func (d *Disk) FileExists(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(d.getAbsPath(path))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

func (d *Disk) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := d.getAbsPath(path)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(absPath); err == nil {
		mode = info.Mode().Perm()
	}

	if err := writeAtomic(absPath, content, mode); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("bytes", len(content)).Msg("wrote file")
	return nil
}

func (d *Disk) Backup(ctx context.Context, path string) (*BackupRecord, error) {
	absPath := d.getAbsPath(path)

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil, errors.Errorf("backing up %s: %w", path, ErrNotExist)
	} else if err != nil {
		return nil, errors.Errorf("checking file existence: %w", err)
	}

	backupPath, err := d.freeBackupPath(absPath)
	if err != nil {
		return nil, err
	}

	if err := copyFile(absPath, backupPath, info); err != nil {
		return nil, errors.Errorf("creating backup: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("backup", backupPath).Msg("backed up file")

	return &BackupRecord{
		Path:       path,
		BackupPath: backupPath,
		Size:       info.Size(),
	}, nil
}

func (d *Disk) Restore(ctx context.Context, path string) error {
	absPath := d.getAbsPath(path)
	backupPath := absPath + d.suffix

	info, err := os.Stat(backupPath)
	if os.IsNotExist(err) {
		return errors.Errorf("restoring %s: %w", path, ErrNoBackup)
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	if err := copyFile(backupPath, absPath, info); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("backup", backupPath).Msg("restored file")
	return nil
}

// freeBackupPath returns path+suffix, or the first numbered variant that is
// not taken yet.
func (d *Disk) freeBackupPath(absPath string) (string, error) {
	candidate := absPath + d.suffix
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.Errorf("checking backup existence: %w", err)
		}
		candidate = fmt.Sprintf("%s%s.%d", absPath, d.suffix, n)
	}
}

// Helper functions

// copyFile copies src to dst through a temp file, keeping the source's
// permissions and modification time.
func copyFile(src, dst string, info os.FileInfo) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	tmp := fmt.Sprintf("%s.tmp.%d", dst, os.Getpid())
	destination, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		os.Remove(tmp)
		return errors.Errorf("copying file: %w", err)
	}
	if err := destination.Sync(); err != nil {
		destination.Close()
		os.Remove(tmp)
		return errors.Errorf("syncing file: %w", err)
	}
	if err := destination.Close(); err != nil {
		os.Remove(tmp)
		return errors.Errorf("closing file: %w", err)
	}
	if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmp)
		return errors.Errorf("setting file times: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return syncDir(filepath.Dir(dst))
}

// writeAtomic writes content to a temp file and renames it over path.
func writeAtomic(path string, content []byte, mode os.FileMode) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Errorf("closing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return errors.Errorf("syncing directory: %w", err)
	}
	return nil
}
