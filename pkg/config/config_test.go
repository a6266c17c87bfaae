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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/walteh/remigrate/pkg/rewrite"
	"github.com/walteh/remigrate/pkg/verify"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing config file should succeed")
	return path
}

func ruleIDs(c *catalog.Catalog) []string {
	ids := make([]string, 0, c.Len())
	for _, r := range c.Rules() {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid_config",
			config: `
include:
  - "Effects/**/*.cs"
exclude:
  - "**/obj/**"
backup_suffix: .orig
workers: 4
dry_run: true
adapter: CanvasAdapter
markers:
  open: "// region"
  close: "// endregion"
rules:
  - id: draw-call
    class: token
    pattern: 'Draw\((\w+)\)'
    replacement: 'Render($1)'
disable:
  - registry-create-by-name
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"Effects/**/*.cs"}, cfg.Include, "include should match")
				assert.Equal(t, []string{"**/obj/**"}, cfg.Exclude, "exclude should match")
				assert.Equal(t, ".orig", cfg.BackupSuffix, "backup suffix should match")
				assert.Equal(t, 4, cfg.Workers, "workers should match")
				assert.True(t, cfg.DryRun, "dry run should be true")
				assert.Equal(t, "CanvasAdapter", cfg.Adapter, "adapter should match")
				require.NotNil(t, cfg.Markers)
				assert.Equal(t, "// region", cfg.Markers.Open, "open marker should match")
				assert.Equal(t, "// endregion", cfg.Markers.Close, "close marker should match")
				assert.Equal(t, verify.DefaultClosingToken, cfg.Markers.ClosingToken, "closing token should default")
				require.Len(t, cfg.Rules, 1, "should have 1 rule")
				assert.Equal(t, "draw-call", cfg.Rules[0].ID)
				assert.Equal(t, []string{catalog.RuleRegistryCreateByName}, cfg.Disable)
			},
		},
		{
			name:   "empty_config",
			config: "",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".backup", cfg.BackupSuffix, "backup suffix should have default value")
				assert.Equal(t, 1, cfg.Workers, "workers should have default value")
				assert.Equal(t, catalog.DefaultAdapterType, cfg.Adapter, "adapter should have default value")
				assert.Equal(t, verify.DefaultOpenMarker, cfg.Markers.Open, "open marker should have default value")
				assert.Empty(t, cfg.Rules, "rules should be empty")
			},
		},
		{
			name:        "unknown_field",
			config:      "destination: /tmp\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:        "negative_workers",
			config:      "workers: -1\n",
			wantErr:     true,
			errContains: "workers must not be negative",
		},
		{
			name:        "suffix_with_separator",
			config:      "backup_suffix: /bak\n",
			wantErr:     true,
			errContains: "must not contain a path separator",
		},
		{
			name:        "invalid_include",
			config:      "include:\n  - \"src/[\"\n",
			wantErr:     true,
			errContains: "invalid include pattern",
		},
		{
			name:        "invalid_exclude",
			config:      "exclude:\n  - \"{a,b\"\n",
			wantErr:     true,
			errContains: "invalid exclude pattern",
		},
		{
			name: "unknown_class",
			config: `
rules:
  - id: x
    class: sideways
    pattern: x
`,
			wantErr:     true,
			errContains: `unknown rule class "sideways"`,
		},
		{
			name: "bad_pattern",
			config: `
rules:
  - id: x
    class: token
    pattern: "("
`,
			wantErr:     true,
			errContains: "compiling pattern",
		},
		{
			name: "block_pattern_without_brace",
			config: `
rules:
  - id: x
    class: block-remove
    pattern: 'void Legacy\(\)'
`,
			wantErr:     true,
			errContains: "block pattern must end with an opening brace",
		},
		{
			name: "duplicate_custom_rules",
			config: `
rules:
  - id: x
    class: token
    pattern: a
  - id: x
    class: token
    pattern: b
`,
			wantErr:     true,
			errContains: "duplicate id",
		},
		{
			name:        "unknown_disable",
			config:      "disable:\n  - nope\n",
			wantErr:     true,
			errContains: `disable: unknown rule "nope"`,
		},
	}

	ctx := testContext(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, ".remigrate.yaml", tt.config)

			// Load config
			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, configPath, cfg.Location())
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestHCLParsing(t *testing.T) {
	configPath := writeConfig(t, ".remigrate.hcl", `
include = ["Effects/**/*.cs"]
workers = 2
adapter = "CanvasAdapter"

markers {
  closing_token = "end"
}

rule "draw-call" {
  class       = "token"
  pattern     = "Draw\\((\\w+)\\)"
  replacement = "Render($1)"
}

rule "drop-legacy" {
  class   = "block-remove"
  pattern = "void Legacy\\(\\)\\s*{"
}

disable = [builtin.registry_create_by_name]
`)

	cfg, err := Load(testContext(t), configPath)
	require.NoError(t, err, "Load should succeed")

	assert.Equal(t, []string{"Effects/**/*.cs"}, cfg.Include)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "CanvasAdapter", cfg.Adapter)
	assert.Equal(t, "end", cfg.Markers.ClosingToken)
	assert.Equal(t, verify.DefaultOpenMarker, cfg.Markers.Open)
	assert.Equal(t, []string{catalog.RuleRegistryCreateByName}, cfg.Disable)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, Rule{ID: "draw-call", Class: "token", Pattern: `Draw\((\w+)\)`, Replacement: "Render($1)"}, cfg.Rules[0])
	assert.Equal(t, "drop-legacy", cfg.Rules[1].ID)
}

func TestHCLParsing_Errors(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		errContains string
	}{
		{
			name:        "syntax",
			config:      "include = [",
			errContains: "parsing HCL",
		},
		{
			name:        "unknown_attribute",
			config:      `destination = "/tmp"`,
			errContains: "decoding HCL",
		},
		{
			name:        "unknown_builtin",
			config:      `disable = [builtin.nope]`,
			errContains: "decoding HCL",
		},
		{
			name:        "rule_without_label",
			config:      "rule {\n  class = \"token\"\n  pattern = \"x\"\n}",
			errContains: "decoding HCL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(testContext(t), writeConfig(t, "config.hcl", tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestJSONParsing(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		configPath := writeConfig(t, ".remigrate.json", `{
			"include": ["**/*.cs"],
			"rules": [
				{"id": "rename", "class": "token", "pattern": "OldApi.", "literal": true, "replacement": "NewApi."}
			]
		}`)

		cfg, err := Load(testContext(t), configPath)
		require.NoError(t, err)
		require.Len(t, cfg.Rules, 1)
		assert.True(t, cfg.Rules[0].Literal)
	})

	t.Run("unknown_field", func(t *testing.T) {
		_, err := Load(testContext(t), writeConfig(t, "config.json", `{"provider": {}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing JSON")
	})

	t.Run("empty_document", func(t *testing.T) {
		cfg, err := Load(testContext(t), writeConfig(t, ".remigrate.json", "  \n"))
		require.NoError(t, err)
		assert.Empty(t, cfg.Include)
		assert.Equal(t, 1, cfg.Workers, "defaults should be filled in")
		assert.Equal(t, ".backup", cfg.BackupSuffix)
	})

	t.Run("trailing_data", func(t *testing.T) {
		_, err := Load(testContext(t), writeConfig(t, ".remigrate.json", `{"workers": 2} {"workers": 3}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected data after the config object")
	})
}

func TestParserSelection(t *testing.T) {
	tests := []struct {
		filename string
		want     Parser
	}{
		{".remigrate.hcl", &HCLParser{}},
		{"config.yaml", &YAMLParser{}},
		{"config.yml", &YAMLParser{}},
		{"CONFIG.JSON", &JSONParser{}},
		{"config.toml", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got, "no parser should match")
				return
			}
			assert.IsType(t, tt.want, got, "parser type should match")
		})
	}

	_, err := Load(testContext(t), writeConfig(t, "config.toml", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser found")
}

func TestDiscover(t *testing.T) {
	ctx := testContext(t)

	t.Run("defaults_when_missing", func(t *testing.T) {
		cfg, err := Discover(ctx, t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Location())
		assert.Equal(t, 1, cfg.Workers)
	})

	t.Run("hcl_wins_over_yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".remigrate.yaml"), []byte("workers: 3\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".remigrate.hcl"), []byte("workers = 5\n"), 0o644))

		cfg, err := Discover(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".remigrate.hcl"), cfg.Location())
		assert.Equal(t, 5, cfg.Workers)
	})

	t.Run("invalid_file_is_an_error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".remigrate.json"), []byte("{"), 0o644))

		_, err := Discover(ctx, dir)
		require.Error(t, err)
	})
}

func TestCatalog(t *testing.T) {
	builtin := ruleIDs(catalog.Default(catalog.DefaultOptions{}))

	t.Run("defaults", func(t *testing.T) {
		c, err := Default().Catalog()
		require.NoError(t, err)
		assert.Equal(t, builtin, ruleIDs(c))
	})

	t.Run("custom_rules_follow_their_class", func(t *testing.T) {
		cfg := &Config{Rules: []Rule{
			{ID: "draw-call", Class: "token", Pattern: `Draw\((\w+)\)`, Replacement: "Render($1)"},
			{ID: "drop-legacy", Class: "block-remove", Pattern: `void Legacy\(\)\s*{`},
		}}
		require.NoError(t, cfg.Validate())

		c, err := cfg.Catalog()
		require.NoError(t, err)

		ids := ruleIDs(c)
		require.Len(t, ids, len(builtin)+2)
		assert.Equal(t, "draw-call", ids[len(ids)-1], "token rules run last")
		assert.Less(t, indexOf(ids, "drop-legacy"), indexOf(ids, catalog.RuleCanvasAdapter), "block rules run before token rules")

		out := rewrite.New(c).Transform("void Legacy() { x(); }\nDraw(img);\n}")
		assert.Equal(t, "Render(img);\n}\n", out.Content)
	})

	t.Run("override_builtin", func(t *testing.T) {
		cfg := &Config{Rules: []Rule{
			{ID: catalog.RuleRegistryCreateByName, Class: "token", Pattern: "EffectRegistry.Create(", Literal: true, Replacement: "Registry.Make("},
		}}
		require.NoError(t, cfg.Validate())

		c, err := cfg.Catalog()
		require.NoError(t, err)
		assert.Equal(t, len(builtin), c.Len())

		out := rewrite.New(c).Transform(`EffectRegistry.Create("blur");`)
		assert.Equal(t, "Registry.Make(\"blur\");\n", out.Content)
	})

	t.Run("disable", func(t *testing.T) {
		cfg := &Config{Disable: []string{catalog.RuleCanvasAdapter, catalog.RuleProcessFrame}}
		require.NoError(t, cfg.Validate())

		c, err := cfg.Catalog()
		require.NoError(t, err)
		assert.NotContains(t, ruleIDs(c), catalog.RuleCanvasAdapter)
		assert.NotContains(t, ruleIDs(c), catalog.RuleProcessFrame)
		assert.Equal(t, len(builtin)-2, c.Len())
	})

	t.Run("adapter", func(t *testing.T) {
		cfg := &Config{Adapter: "CanvasAdapter"}
		require.NoError(t, cfg.Validate())

		c, err := cfg.Catalog()
		require.NoError(t, err)

		out := rewrite.New(c).Transform("x { Canvas = canvas }")
		assert.Equal(t, "x { Canvas = new CanvasAdapter(canvas) }\n", out.Content)
	})
}

func TestVerifier(t *testing.T) {
	cfg := &Config{Markers: &Markers{Open: "// region", Close: "// endregion", ClosingToken: "end"}}
	require.NoError(t, cfg.Validate())

	v := cfg.Verifier()
	assert.True(t, v.Verify("// region A\nx\n// endregion\nend").OK())
	assert.True(t, v.Verify("// region A\nx\nend").Has(verify.CodeUnbalancedRegions))
}

func TestConfigString(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Default(),
			want: "defaults: 0 include, 0 exclude, 0 rules, 0 disabled, workers=1",
		},
		{
			name: "loaded",
			cfg: &Config{
				Include:  []string{"**/*.cs"},
				Rules:    []Rule{{ID: "a"}, {ID: "b"}},
				Workers:  3,
				location: ".remigrate.hcl",
			},
			want: ".remigrate.hcl: 1 include, 0 exclude, 2 rules, 0 disabled, workers=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.String()
			assert.Equal(t, tt.want, got, "String() should match")
		})
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
