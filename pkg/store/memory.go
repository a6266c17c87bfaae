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
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 🧠 Memory implements FileManager over a map. Safe for concurrent use.
type Memory struct {
	suffix string

	mu     sync.RWMutex
	files  map[string][]byte
	writes []string
}

// NewMemory creates a memory file manager seeded with files.
func NewMemory(suffix string, files map[string]string) *Memory {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	m := &Memory{suffix: suffix, files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[path] = []byte(content)
	}
	return m
}

func (m *Memory) ReadFile(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[path]
	if !ok {
		return nil, errors.Errorf("reading %s: %w", path, ErrNotExist)
	}
	return append([]byte(nil), content...), nil
}

func (m *Memory) FileExists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[path]
	return ok, nil
}

func (m *Memory) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), content...)
	m.writes = append(m.writes, path)
	return nil
}

func (m *Memory) Backup(ctx context.Context, path string) (*BackupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[path]
	if !ok {
		return nil, errors.Errorf("backing up %s: %w", path, ErrNotExist)
	}

	backupPath := path + m.suffix
	for n := 1; ; n++ {
		if _, taken := m.files[backupPath]; !taken {
			break
		}
		backupPath = fmt.Sprintf("%s%s.%d", path, m.suffix, n)
	}

	m.files[backupPath] = append([]byte(nil), content...)
	m.writes = append(m.writes, backupPath)

	return &BackupRecord{Path: path, BackupPath: backupPath, Size: int64(len(content))}, nil
}

func (m *Memory) Restore(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[path+m.suffix]
	if !ok {
		return errors.Errorf("restoring %s: %w", path, ErrNoBackup)
	}
	m.files[path] = append([]byte(nil), content...)
	m.writes = append(m.writes, path)
	return nil
}

// Get returns the stored content of path.
func (m *Memory) Get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[path]
	return string(content), ok
}

// Writes returns every path written, backups included, in order.
func (m *Memory) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.writes...)
}
