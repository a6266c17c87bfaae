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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/walteh/remigrate/pkg/store"
	"github.com/walteh/remigrate/pkg/verify"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are looked up, in order, when no config path is given.
var DefaultFileNames = []string{
	".remigrate.hcl",
	".remigrate.yaml",
	".remigrate.yml",
	".remigrate.json",
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes. It does not validate.
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🏷️ Markers names the region delimiters and the closing token the verifier
// checks for
type Markers struct {
	Open         string `json:"open,omitempty" yaml:"open,omitempty"`
	Close        string `json:"close,omitempty" yaml:"close,omitempty"`
	ClosingToken string `json:"closing_token,omitempty" yaml:"closing_token,omitempty"`
}

// 🔄 Rule is a user-defined rewrite rule
type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Class          string   `json:"class" yaml:"class"`                                           // block-replace, block-remove or token
	Pattern        string   `json:"pattern" yaml:"pattern"`                                       // regexp, or signature for block classes
	Literal        bool     `json:"literal,omitempty" yaml:"literal,omitempty"`                   // match Pattern as plain text
	Replacement    string   `json:"replacement,omitempty" yaml:"replacement,omitempty"`           // $1 style captures unless literal
	SkipIfContains []string `json:"skip_if_contains,omitempty" yaml:"skip_if_contains,omitempty"` // already migrated guards
}

// 📚 Config represents the complete configuration
type Config struct {
	Include      []string `json:"include,omitempty" yaml:"include,omitempty"` // doublestar globs
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty"` // doublestar globs
	BackupSuffix string   `json:"backup_suffix,omitempty" yaml:"backup_suffix,omitempty"`
	Workers      int      `json:"workers,omitempty" yaml:"workers,omitempty"`
	DryRun       bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Adapter      string   `json:"adapter,omitempty" yaml:"adapter,omitempty"` // type wrapped around raw canvases
	Markers      *Markers `json:"markers,omitempty" yaml:"markers,omitempty"`
	Rules        []Rule   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Disable      []string `json:"disable,omitempty" yaml:"disable,omitempty"` // rule IDs to turn off

	location string
}

// Default returns the validated configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	// the zero config always validates
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Discover loads the first of DefaultFileNames found in dir, or returns
// Default when there is none.
func Discover(ctx context.Context, dir string) (*Config, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(ctx, path)
		} else if !os.IsNotExist(err) {
			return nil, errors.Errorf("checking config file: %w", err)
		}
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	return Default(), nil
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative")
	}

	// Set defaults
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.BackupSuffix == "" {
		cfg.BackupSuffix = store.DefaultBackupSuffix
	}
	if strings.ContainsAny(cfg.BackupSuffix, `/\`) {
		return errors.Errorf("backup_suffix %q must not contain a path separator", cfg.BackupSuffix)
	}
	if cfg.Adapter == "" {
		cfg.Adapter = catalog.DefaultAdapterType
	}
	if cfg.Markers == nil {
		cfg.Markers = &Markers{}
	}
	if cfg.Markers.Open == "" {
		cfg.Markers.Open = verify.DefaultOpenMarker
	}
	if cfg.Markers.Close == "" {
		cfg.Markers.Close = verify.DefaultCloseMarker
	}
	if cfg.Markers.ClosingToken == "" {
		cfg.Markers.ClosingToken = verify.DefaultClosingToken
	}

	for _, p := range cfg.Include {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return errors.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
	}

	if _, err := cfg.Catalog(); err != nil {
		return err
	}

	return nil
}

// RuleSpecs returns the user-defined rules in their declarative form.
func (cfg *Config) RuleSpecs() []catalog.RuleSpec {
	specs := make([]catalog.RuleSpec, len(cfg.Rules))
	for i, r := range cfg.Rules {
		specs[i] = catalog.RuleSpec{
			ID:             r.ID,
			Class:          r.Class,
			Pattern:        r.Pattern,
			Literal:        r.Literal,
			Replacement:    r.Replacement,
			SkipIfContains: r.SkipIfContains,
		}
	}
	return specs
}

// 📚 Catalog builds the effective rule catalog: the built-in rules, with
// user rules added (a user rule replaces a built-in one with the same ID)
// and disabled IDs dropped.
func (cfg *Config) Catalog() (*catalog.Catalog, error) {
	custom, err := catalog.FromSpecs(cfg.RuleSpecs())
	if err != nil {
		return nil, errors.Errorf("building rules: %w", err)
	}

	overridden := make([]string, len(custom))
	for i, r := range custom {
		overridden[i] = r.ID
	}

	c := catalog.Default(catalog.DefaultOptions{AdapterType: cfg.Adapter}).
		Without(overridden...).
		With(custom...)

	known := make(map[string]bool, c.Len())
	for _, r := range c.Rules() {
		known[r.ID] = true
	}
	for _, id := range cfg.Disable {
		if !known[id] {
			return nil, errors.Errorf("disable: unknown rule %q", id)
		}
	}

	c = c.Without(cfg.Disable...)
	if err := c.Validate(); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}
	return c, nil
}

// Verifier returns a verifier for the configured markers.
func (cfg *Config) Verifier() *verify.Verifier {
	if cfg.Markers == nil {
		return verify.Default()
	}
	return verify.New(cfg.Markers.Open, cfg.Markers.Close, cfg.Markers.ClosingToken)
}

// Location returns the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	location := cfg.location
	if location == "" {
		location = "defaults"
	}
	return fmt.Sprintf("%s: %d include, %d exclude, %d rules, %d disabled, workers=%d",
		location, len(cfg.Include), len(cfg.Exclude), len(cfg.Rules), len(cfg.Disable), cfg.Workers)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// an empty document is a valid, empty config
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
