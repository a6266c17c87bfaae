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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
//
// Rules are labelled blocks:
//
//	rule "draw-call" {
//	  class       = "token"
//	  pattern     = "Draw\\((\\w+)\\)"
//	  replacement = "Render($1)"
//	}
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"builtin": builtinRuleIDs(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Include      []string `hcl:"include,optional"`
		Exclude      []string `hcl:"exclude,optional"`
		BackupSuffix string   `hcl:"backup_suffix,optional"`
		Workers      int      `hcl:"workers,optional"`
		DryRun       bool     `hcl:"dry_run,optional"`
		Adapter      string   `hcl:"adapter,optional"`
		Markers      *struct {
			Open         string `hcl:"open,optional"`
			Close        string `hcl:"close,optional"`
			ClosingToken string `hcl:"closing_token,optional"`
		} `hcl:"markers,block"`
		Rules []struct {
			ID             string   `hcl:"id,label"`
			Class          string   `hcl:"class"`
			Pattern        string   `hcl:"pattern"`
			Literal        bool     `hcl:"literal,optional"`
			Replacement    string   `hcl:"replacement,optional"`
			SkipIfContains []string `hcl:"skip_if_contains,optional"`
		} `hcl:"rule,block"`
		Disable []string `hcl:"disable,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Include:      hclCfg.Include,
		Exclude:      hclCfg.Exclude,
		BackupSuffix: hclCfg.BackupSuffix,
		Workers:      hclCfg.Workers,
		DryRun:       hclCfg.DryRun,
		Adapter:      hclCfg.Adapter,
		Disable:      hclCfg.Disable,
	}

	if hclCfg.Markers != nil {
		cfg.Markers = &Markers{
			Open:         hclCfg.Markers.Open,
			Close:        hclCfg.Markers.Close,
			ClosingToken: hclCfg.Markers.ClosingToken,
		}
	}

	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{
			ID:             r.ID,
			Class:          r.Class,
			Pattern:        r.Pattern,
			Literal:        r.Literal,
			Replacement:    r.Replacement,
			SkipIfContains: r.SkipIfContains,
		})
	}

	return cfg, nil
}

// builtinRuleIDs exposes the built-in rule IDs to HCL expressions, so
// `disable = [builtin.registry_create_by_name]` is checked at decode time.
func builtinRuleIDs() cty.Value {
	ids := map[string]cty.Value{}
	for _, r := range catalog.Default(catalog.DefaultOptions{}).Rules() {
		ids[strings.ReplaceAll(r.ID, "-", "_")] = cty.StringVal(r.ID)
	}
	return cty.ObjectVal(ids)
}
