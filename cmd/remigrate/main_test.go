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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/remigrate/cmd/remigrate/commands"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/walteh/remigrate/pkg/report"
	"gitlab.com/tozd/go/errors"
)

const legacyNode = `namespace Effects
{
    public class Blur : BaseEffectNode
    {
        public override void ProcessFrame(ImageBuffer input)
        {
            Draw(input);
        }

        void Make() { var ctx = new RenderContext { Canvas = canvas }; }
    }
}
`

const leftoverRegion = "class A\n{\n    #region Legacy\n    #endregion\n    var c = new X { Canvas = canvas };\n}\n"

func setupDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", name)
	}
	return dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(content)
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	// Disable color for testing
	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableStyling()
	})

	var buf bytes.Buffer
	cmd := newRootCmd(report.New(&buf))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRun(t *testing.T) {
	dir := setupDir(t, map[string]string{
		".remigrate.yaml":  "include:\n  - \"Effects/**/*.cs\"\n",
		"Effects/Blur.cs":  legacyNode,
		"Effects/Other.cs": "class Other\n{\n}\n",
	})

	out, err := execute(t, dir, "run")
	require.NoError(t, err, out)

	migrated := readFile(t, dir, "Effects/Blur.cs")
	assert.Contains(t, migrated, "ProcessCore")
	assert.NotContains(t, migrated, "ProcessFrame")
	assert.Contains(t, migrated, "Canvas = new Adapter(canvas)")
	assert.Equal(t, legacyNode, readFile(t, dir, "Effects/Blur.cs.backup"))

	_, err = os.Stat(filepath.Join(dir, "Effects", "Other.cs.backup"))
	assert.True(t, os.IsNotExist(err), "unchanged files are not backed up")

	assert.Contains(t, out, "Effects/Blur.cs")
	assert.Contains(t, out, "1 files migrated")

	// a second run finds nothing left to do
	out, err = execute(t, dir, "run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 files migrated")
	_, err = os.Stat(filepath.Join(dir, "Effects", "Blur.cs.backup.1"))
	assert.True(t, os.IsNotExist(err), "idempotent runs take no new backups")
}

func TestRun_ExplicitPathsAndFlags(t *testing.T) {
	dir := setupDir(t, map[string]string{"Blur.cs": legacyNode})

	out, err := execute(t, dir, "run", "--adapter", "CanvasAdapter", "--backup-suffix", ".orig", "--workers", "2", "Blur.cs", "Missing.cs")
	require.NoError(t, err, out)

	assert.Contains(t, readFile(t, dir, "Blur.cs"), "new CanvasAdapter(canvas)")
	assert.Equal(t, legacyNode, readFile(t, dir, "Blur.cs.orig"))
	assert.Contains(t, out, "missing")
}

func TestRun_DryRun(t *testing.T) {
	dir := setupDir(t, map[string]string{"Blur.cs": legacyNode})

	out, err := execute(t, dir, "run", "--dry-run", "Blur.cs")
	require.NoError(t, err, out)

	assert.Equal(t, legacyNode, readFile(t, dir, "Blur.cs"), "dry run writes nothing")
	_, err = os.Stat(filepath.Join(dir, "Blur.cs.backup"))
	assert.True(t, os.IsNotExist(err), "dry run takes no backup")

	assert.Contains(t, out, "+        protected override object ProcessCore(")
	assert.Contains(t, out, "dry run: 1 files would change")
}

func TestRun_JSON(t *testing.T) {
	dir := setupDir(t, map[string]string{"Blur.cs": legacyNode})

	out, err := execute(t, dir, "run", "--json", "Blur.cs", "Gone.cs")
	require.NoError(t, err, out)

	var got struct {
		Processed int `json:"processed"`
		Changed   int `json:"changed"`
		Missing   int `json:"missing"`
		Results   []struct {
			Path   string   `json:"path"`
			Status string   `json:"status"`
			Fired  []string `json:"fired"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 2, got.Processed)
	assert.Equal(t, 1, got.Changed)
	assert.Equal(t, 1, got.Missing)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "changed", got.Results[0].Status)
	assert.Equal(t, []string{catalog.RuleProcessFrame, catalog.RuleCanvasAdapter}, got.Results[0].Fired)
	assert.Equal(t, "missing", got.Results[1].Status)
}

func TestRun_Strict(t *testing.T) {
	dir := setupDir(t, map[string]string{"A.cs": leftoverRegion})

	out, err := execute(t, dir, "run", "A.cs")
	require.NoError(t, err, "issues are advisory by default")
	assert.Contains(t, out, "empty region left behind: Legacy")
	assert.Contains(t, readFile(t, dir, "A.cs"), "new Adapter(canvas)")

	dir = setupDir(t, map[string]string{"A.cs": leftoverRegion})

	_, err = execute(t, dir, "run", "--strict", "A.cs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commands.ErrVerificationIssues))
	assert.Contains(t, readFile(t, dir, "A.cs"), "new Adapter(canvas)", "strict never undoes the write")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		args        []string
		errContains string
	}{
		{
			name:        "no_files",
			args:        []string{"run"},
			errContains: "no files to process",
		},
		{
			name:        "invalid_config",
			files:       map[string]string{"bad.yaml": "workers: many\n"},
			args:        []string{"--config", "BAD", "run", "A.cs"},
			errContains: "loading config",
		},
		{
			name:        "negative_workers",
			files:       map[string]string{"A.cs": legacyNode},
			args:        []string{"run", "--workers", "-1", "A.cs"},
			errContains: "workers must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupDir(t, tt.files)
			args := tt.args
			for i, a := range args {
				if a == "BAD" {
					args[i] = filepath.Join(dir, "bad.yaml")
				}
			}
			_, err := execute(t, dir, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCheck(t *testing.T) {
	dir := setupDir(t, map[string]string{
		"Good.cs": "class Good\n{\n}\n",
		"Bad.cs":  leftoverRegion,
	})

	out, err := execute(t, dir, "check", "Good.cs")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 files verified")

	out, err = execute(t, dir, "check", "Good.cs", "Bad.cs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commands.ErrVerificationIssues))
	assert.Contains(t, out, "empty region left behind: Legacy")
	assert.Equal(t, leftoverRegion, readFile(t, dir, "Bad.cs"), "check never writes")
}

func TestCheck_JSON(t *testing.T) {
	dir := setupDir(t, map[string]string{"Bad.cs": "class Bad\n{\n"})

	out, err := execute(t, dir, "check", "--json", "Bad.cs")
	require.Error(t, err)

	var got []commands.CheckResult
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got, 1)
	assert.Equal(t, "Bad.cs", got[0].Path)
	require.Len(t, got[0].Issues, 1)
	assert.Equal(t, "missing-closing-token", got[0].Issues[0].Code)
}

func TestRestore(t *testing.T) {
	dir := setupDir(t, map[string]string{"Blur.cs": legacyNode})

	_, err := execute(t, dir, "run", "Blur.cs")
	require.NoError(t, err)
	require.NotEqual(t, legacyNode, readFile(t, dir, "Blur.cs"))

	out, err := execute(t, dir, "restore", "Blur.cs")
	require.NoError(t, err, out)
	assert.Equal(t, legacyNode, readFile(t, dir, "Blur.cs"))
	assert.Equal(t, legacyNode, readFile(t, dir, "Blur.cs.backup"), "backup is kept")
	assert.Contains(t, out, "restored Blur.cs")

	_, err = execute(t, dir, "restore", "Other.cs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backups found")
}

func TestRules(t *testing.T) {
	dir := setupDir(t, map[string]string{
		".remigrate.hcl": "disable = [builtin.registry_create_by_name]\n",
	})

	out, err := execute(t, dir, "rules", "--json")
	require.NoError(t, err, out)

	var got []struct {
		ID    string `json:"id"`
		Class string `json:"class"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got, catalog.Default(catalog.DefaultOptions{}).Len()-1)
	assert.Equal(t, catalog.RuleProcessFrame, got[0].ID)
	assert.Equal(t, "block-replace", got[0].Class)
	for _, r := range got {
		assert.NotEqual(t, catalog.RuleRegistryCreateByName, r.ID)
	}

	out, err = execute(t, dir, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, catalog.RuleCanvasAdapter)
}

func TestVersion(t *testing.T) {
	// an unreadable config must not break version
	dir := setupDir(t, map[string]string{".remigrate.json": "{"})

	out, err := execute(t, dir, "version", "--json")
	require.NoError(t, err, out)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.NotEmpty(t, got["go_version"])
	assert.NotEmpty(t, got["platform"])

	out, err = execute(t, dir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "🚀 remigrate")
}
