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

package catalog

import (
	"fmt"
	"regexp"
)

// DefaultAdapterType wraps raw canvas assignments in the token rules.
const DefaultAdapterType = "Adapter"

// Rule IDs of the built-in catalog.
const (
	RuleProcessFrame                = "process-frame"
	RuleGetConfiguration            = "get-configuration"
	RuleApplyConfiguration          = "apply-configuration"
	RuleEmptyConfigurationRegion    = "empty-configuration-region"
	RuleTrailingConfigurationRegion = "trailing-configuration-region"
	RuleCanvasAdapter               = "canvas-adapter"
	RuleCanvasAdapterShort          = "canvas-adapter-short"
	RuleCanvasAdapterCompact        = "canvas-adapter-compact"
	RuleRegistryCreateByName        = "registry-create-by-name"
)

// ProcessCoreBlock replaces the old ProcessFrame override.
const ProcessCoreBlock = `        protected override object ProcessCore(Dictionary<string, object> inputs, AudioFeatures audioFeatures)
        {
            if (!inputs.TryGetValue("Image", out var input) || input is not ImageBuffer imageBuffer)
                return GetDefaultOutput();

            var output = new ImageBuffer(imageBuffer.Width, imageBuffer.Height);

            // Effect logic goes here; until then the input is passed through.
            for (int i = 0; i < output.Pixels.Length; i++)
            {
                output.Pixels[i] = imageBuffer.Pixels[i];
            }

            return output;
        }

        public override object GetDefaultOutput()
        {
            return new ImageBuffer(800, 600);
        }`

var (
	processFrameSignature       = regexp.MustCompile(`public\s+override\s+void\s+ProcessFrame\s*\([^)]*\)\s*\{`)
	getConfigurationSignature   = regexp.MustCompile(`public\s+override\s+Dictionary<\s*string\s*,\s*object\s*>\s+GetConfiguration\s*\(\s*\)\s*\{`)
	applyConfigurationSignature = regexp.MustCompile(`public\s+override\s+void\s+ApplyConfiguration\s*\(\s*Dictionary<\s*string\s*,\s*object\s*>\s+\w+\s*\)\s*\{`)
	emptyConfigurationRegion    = regexp.MustCompile(`(?m)^[ \t]*#region[ \t]+Configuration[ \t]*\r?\n(?:[ \t]*\r?\n)*[ \t]*#endregion[^\n]*\n?`)
	trailingConfigurationRegion = regexp.MustCompile(`(?m)^[ \t]*#region[ \t]+Configuration\s*\z`)
	canvasAssignment            = regexp.MustCompile(`\bCanvas = canvas\b`)
	canvasAssignmentShort       = regexp.MustCompile(`\bCanvas = c\b`)
	canvasAssignmentCompact     = regexp.MustCompile(`\bCanvas=canvas\b`)
)

// DefaultOptions tunes the built-in catalog.
type DefaultOptions struct {
	// AdapterType is the type raw canvases get wrapped in.
	AdapterType string
}

// Default returns the built-in effect node migration rules.
func Default(opts DefaultOptions) *Catalog {
	adapter := opts.AdapterType
	if adapter == "" {
		adapter = DefaultAdapterType
	}
	// the three canvas rules share a guard, so the first one that fires
	// turns the others off
	migrated := []string{fmt.Sprintf("new %s(", adapter)}

	return New(
		Rule{
			ID:       RuleProcessFrame,
			Class:    ClassBlockReplace,
			Matcher:  Block(processFrameSignature, false),
			Replacer: Text(ProcessCoreBlock),
		},
		Rule{
			ID:       RuleGetConfiguration,
			Class:    ClassBlockRemove,
			Matcher:  Block(getConfigurationSignature, true),
			Replacer: Remove(),
		},
		Rule{
			ID:       RuleApplyConfiguration,
			Class:    ClassBlockRemove,
			Matcher:  Block(applyConfigurationSignature, true),
			Replacer: Remove(),
		},
		Rule{
			ID:       RuleEmptyConfigurationRegion,
			Class:    ClassBlockRemove,
			Matcher:  Regex(emptyConfigurationRegion),
			Replacer: Remove(),
		},
		Rule{
			ID:       RuleTrailingConfigurationRegion,
			Class:    ClassBlockRemove,
			Matcher:  Regex(trailingConfigurationRegion),
			Replacer: Remove(),
		},
		Rule{
			ID:             RuleCanvasAdapter,
			Class:          ClassToken,
			Matcher:        Regex(canvasAssignment),
			Replacer:       Text(fmt.Sprintf("Canvas = new %s(canvas)", adapter)),
			SkipIfContains: migrated,
		},
		Rule{
			ID:             RuleCanvasAdapterShort,
			Class:          ClassToken,
			Matcher:        Regex(canvasAssignmentShort),
			Replacer:       Text(fmt.Sprintf("Canvas = new %s(c)", adapter)),
			SkipIfContains: migrated,
		},
		Rule{
			ID:             RuleCanvasAdapterCompact,
			Class:          ClassToken,
			Matcher:        Regex(canvasAssignmentCompact),
			Replacer:       Text(fmt.Sprintf("Canvas=new %s(canvas)", adapter)),
			SkipIfContains: migrated,
		},
		Rule{
			ID:       RuleRegistryCreateByName,
			Class:    ClassToken,
			Matcher:  Literal("EffectRegistry.Create("),
			Replacer: Text("EffectRegistry.CreateByName("),
		},
	)
}
