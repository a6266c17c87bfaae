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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/remigrate/cmd/remigrate/opts"
	"github.com/walteh/remigrate/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// ruleInfo is the JSON form of a catalog rule
type ruleInfo struct {
	ID             string   `json:"id"`
	Class          string   `json:"class"`
	SkipIfContains []string `json:"skip_if_contains,omitempty"`
}

// NewRulesCmd creates a new rules command
func NewRulesCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		adapter    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the effective rules in the order they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := report.FromContext(cmd.Context())

			if cmd.Flags().Changed("adapter") {
				opts.Config.Adapter = adapter
			}

			c, err := opts.Config.Catalog()
			if err != nil {
				return errors.Errorf("building catalog: %w", err)
			}

			if !jsonOutput {
				return printer.Rules(c)
			}

			rules := make([]ruleInfo, 0, c.Len())
			for _, r := range c.Rules() {
				rules = append(rules, ruleInfo{ID: r.ID, Class: r.Class.String(), SkipIfContains: r.SkipIfContains})
			}
			return printer.JSON(rules)
		},
	}

	cmd.Flags().StringVar(&adapter, "adapter", "", "type wrapped around raw canvas assignments")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the rules as JSON")

	return cmd
}
