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
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Class orders rules so that whole blocks are handled before tokens that
// may live inside them.
type Class int

const (
	ClassUnknown      Class = iota
	ClassBlockReplace       // signature + balanced body, replaced once
	ClassBlockRemove        // signature + balanced body, removed once
	ClassToken              // short token sequence, every occurrence
)

// String returns a string representation of Class
func (c Class) String() string {
	switch c {
	case ClassBlockReplace:
		return "block-replace"
	case ClassBlockRemove:
		return "block-remove"
	case ClassToken:
		return "token"
	default:
		return "unknown"
	}
}

// IsBlock reports whether rules of this class apply to the first match only.
func (c Class) IsBlock() bool {
	return c == ClassBlockReplace || c == ClassBlockRemove
}

// ParseClass is the inverse of Class.String.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block-replace", "block_replace", "replace":
		return ClassBlockReplace, nil
	case "block-remove", "block_remove", "remove":
		return ClassBlockRemove, nil
	case "token":
		return ClassToken, nil
	default:
		return ClassUnknown, errors.Errorf("unknown rule class %q", s)
	}
}

// 🔄 Rule pairs a Matcher with a Replacer
type Rule struct {
	ID       string
	Class    Class
	Matcher  Matcher
	Replacer Replacer

	// SkipIfContains disables the rule for content that already holds any of
	// these strings, which is how a rule recognises an earlier migration.
	SkipIfContains []string
}

// Applicable reports whether the rule should run against content.
func (r Rule) Applicable(content string) bool {
	for _, s := range r.SkipIfContains {
		if s != "" && strings.Contains(content, s) {
			return false
		}
	}
	return true
}

// 📚 Catalog is an immutable, class-ordered list of rules
type Catalog struct {
	rules []Rule
}

// New creates a catalog. Rules are stable-sorted by class so declaration
// order only matters within a class.
func New(rules ...Rule) *Catalog {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Class < sorted[j].Class
	})
	return &Catalog{rules: sorted}
}

// Rules returns the rules in application order.
func (c *Catalog) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

// With returns a new catalog containing c's rules followed by extra.
func (c *Catalog) With(extra ...Rule) *Catalog {
	return New(append(c.Rules(), extra...)...)
}

// Without returns a new catalog with the given rule IDs dropped.
func (c *Catalog) Without(ids ...string) *Catalog {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]Rule, 0, c.Len())
	for _, r := range c.Rules() {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	return New(kept...)
}

// Validate checks that every rule is usable.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, c.Len())
	for i, r := range c.Rules() {
		if r.ID == "" {
			return errors.Errorf("rule %d: id is required", i)
		}
		if seen[r.ID] {
			return errors.Errorf("rule %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		if r.Class == ClassUnknown || r.Class > ClassToken {
			return errors.Errorf("rule %q: unknown class %d", r.ID, int(r.Class))
		}
		if r.Matcher == nil {
			return errors.Errorf("rule %q: matcher is required", r.ID)
		}
		if r.Replacer == nil {
			return errors.Errorf("rule %q: replacer is required", r.ID)
		}
	}
	return nil
}
