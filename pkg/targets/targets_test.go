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

package targets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return dir
}

func TestResolve(t *testing.T) {
	dir := makeTree(t,
		"Effects/Blur.cs",
		"Effects/Blur.cs.backup",
		"Effects/Blur.cs.backup.1",
		"Effects/Color/Tint.cs",
		"Effects/obj/Generated.cs",
		"Effects/README.md",
		"Nodes/Root.cs",
	)
	rel := filepath.FromSlash

	tests := []struct {
		name     string
		explicit []string
		opts     Options
		want     []string
	}{
		{
			name:     "explicit_only",
			explicit: []string{"b.cs", "a.cs", "missing.cs"},
			want:     []string{"b.cs", "a.cs", "missing.cs"},
		},
		{
			name: "include",
			opts: Options{BaseDir: dir, Include: []string{"Effects/**/*.cs"}, BackupSuffix: ".backup"},
			want: []string{
				rel("Effects/Blur.cs"),
				rel("Effects/Color/Tint.cs"),
				rel("Effects/obj/Generated.cs"),
			},
		},
		{
			name: "exclude",
			opts: Options{BaseDir: dir, Include: []string{"**/*.cs"}, Exclude: []string{"**/obj/**"}, BackupSuffix: ".backup"},
			want: []string{
				rel("Effects/Blur.cs"),
				rel("Effects/Color/Tint.cs"),
				rel("Nodes/Root.cs"),
			},
		},
		{
			name: "backups_are_skipped",
			opts: Options{BaseDir: dir, Include: []string{"Effects/*"}, BackupSuffix: ".backup"},
			want: []string{
				rel("Effects/Blur.cs"),
				rel("Effects/README.md"),
			},
		},
		{
			name:     "explicit_first_and_deduplicated",
			explicit: []string{rel("Nodes/Root.cs"), rel("Effects/Blur.cs")},
			opts:     Options{BaseDir: dir, Include: []string{"**/*.cs", "Effects/*.cs"}, Exclude: []string{"**/obj/**"}, BackupSuffix: ".backup"},
			want: []string{
				rel("Nodes/Root.cs"),
				rel("Effects/Blur.cs"),
				rel("Effects/Color/Tint.cs"),
			},
		},
		{
			name:     "relative_and_absolute_are_one_file",
			explicit: []string{rel("Nodes/Root.cs"), filepath.Join(dir, "Nodes", "Root.cs"), rel("./Nodes/../Nodes/Root.cs")},
			opts:     Options{BaseDir: dir, Include: []string{"Nodes/*.cs"}, BackupSuffix: ".backup"},
			want:     []string{rel("Nodes/Root.cs")},
		},
		{
			name: "no_matches",
			opts: Options{BaseDir: dir, Include: []string{"**/*.vb"}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(context.Background(), tt.explicit, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_BadPattern(t *testing.T) {
	dir := makeTree(t, "a.cs")

	_, err := Resolve(context.Background(), nil, Options{BaseDir: dir, Include: []string{"[a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "globbing")

	_, err = Resolve(context.Background(), nil, Options{BaseDir: dir, Include: []string{"*.cs"}, Exclude: []string{"[a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching exclude pattern")
}

func TestBackupMatcher(t *testing.T) {
	isBackup := backupMatcher(".bak")

	assert.True(t, isBackup("a.cs.bak"))
	assert.True(t, isBackup("a.cs.bak.12"))
	assert.False(t, isBackup("a.cs"))
	assert.False(t, isBackup("a.bakery.cs"))
	assert.False(t, backupMatcher("")("a.cs.bak"))
}
