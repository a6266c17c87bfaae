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
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📝 RuleSpec is the declarative form of a Rule, as found in config files
type RuleSpec struct {
	ID             string
	Class          string
	Pattern        string
	Literal        bool
	Replacement    string
	SkipIfContains []string
}

// Build compiles the spec into a Rule.
//
// Block classes treat Pattern as the signature, which must end with the
// opening brace. Regex patterns get a Template replacer, literal ones a
// plain Text replacer. Removal ignores Replacement.
func (s RuleSpec) Build() (Rule, error) {
	if s.ID == "" {
		return Rule{}, errors.Errorf("id is required")
	}
	if s.Pattern == "" {
		return Rule{}, errors.Errorf("rule %q: pattern is required", s.ID)
	}
	class, err := ParseClass(s.Class)
	if err != nil {
		return Rule{}, errors.Errorf("rule %q: %w", s.ID, err)
	}

	rule := Rule{ID: s.ID, Class: class, SkipIfContains: s.SkipIfContains}

	expr := s.Pattern
	if s.Literal {
		expr = regexp.QuoteMeta(s.Pattern)
	}

	switch class {
	case ClassBlockReplace, ClassBlockRemove:
		if !strings.HasSuffix(s.Pattern, "{") {
			return Rule{}, errors.Errorf("rule %q: block pattern must end with an opening brace", s.ID)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return Rule{}, errors.Errorf("rule %q: compiling pattern: %w", s.ID, err)
		}
		rule.Matcher = Block(re, class == ClassBlockRemove)
	case ClassToken:
		if s.Literal {
			rule.Matcher = Literal(s.Pattern)
		} else {
			re, err := regexp.Compile(expr)
			if err != nil {
				return Rule{}, errors.Errorf("rule %q: compiling pattern: %w", s.ID, err)
			}
			rule.Matcher = Regex(re)
		}
	}

	switch {
	case class == ClassBlockRemove:
		rule.Replacer = Remove()
	case s.Literal:
		rule.Replacer = Text(s.Replacement)
	default:
		rule.Replacer = Template(s.Replacement)
	}

	return rule, nil
}

// FromSpecs builds rules in order, stopping at the first bad spec.
func FromSpecs(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		r, err := s.Build()
		if err != nil {
			return nil, errors.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
