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

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/remigrate/pkg/catalog"
	"github.com/walteh/remigrate/pkg/migrate"
	"github.com/walteh/remigrate/pkg/verify"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 35 // Base width for filename
	statusWidth  = 10 // Width for status text
	detailIndent = 8  // spaces to indent issues and diffs
)

// 🎯 Printer renders migration results for humans
type Printer struct {
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new printer
func New(console io.Writer) *Printer {
	return &Printer{console: console}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the printer from context, falling back to stdout
func FromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(contextKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout)
}

// 🎯 NewContext adds the printer to context
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// 📝 formatFileResult formats a file result for display
func formatFileResult(r migrate.FileResult, dryRun bool) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch r.Status {
	case migrate.StatusChanged:
		if dryRun {
			symbol = '~'
			symbolColor = color.FgMagenta
		} else {
			symbol = '⟳'
			symbolColor = color.FgBlue
		}
	case migrate.StatusUnchanged:
		symbol = '•'
		symbolColor = color.FgCyan
	case migrate.StatusMissing:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '✗'
		symbolColor = color.FgRed
	}

	status := r.Status.String()
	if r.Status == migrate.StatusFailed && r.Stage != migrate.StageNone {
		status = string(r.Stage) + " failed"
	}

	var detail string
	switch {
	case r.Err != nil && r.Status == migrate.StatusFailed:
		detail = color.New(color.FgRed).Sprint(r.Err.Error())
	case len(r.Fired) > 0:
		detail = color.New(color.Faint).Sprint(strings.Join(r.Fired, ", "))
	}

	// Build the line
	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, r.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, status)))
	if detail != "" {
		line += " " + detail
	}
	return strings.TrimRight(line, " ")
}

// 📝 FileResult prints one file line, followed by its issues and diff
func (p *Printer) FileResult(ctx context.Context, r migrate.FileResult, dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.console, formatFileResult(r, dryRun))
	p.writeIssues(r.Issues)

	if r.Diff != "" {
		for _, line := range strings.Split(r.Diff, "\n") {
			fmt.Fprintf(p.console, "%*s%s\n", detailIndent, "", colorDiffLine(line))
		}
	}

	// Log to zerolog
	ev := zerolog.Ctx(ctx).Debug().
		Str("file", r.Path).
		Str("status", r.Status.String()).
		Strs("fired", r.Fired).
		Int("replacements", r.Replacements).
		Int("issues", len(r.Issues))
	if r.Err != nil {
		ev = ev.Err(r.Err)
	}
	ev.Msg("file result")
}

// 📝 Check prints the verification findings for a file that was not rewritten
func (p *Printer) Check(ctx context.Context, path string, issues verify.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol, symbolColor, status := '✓', color.FgGreen, "ok"
	if !issues.OK() {
		symbol, symbolColor, status = '!', color.FgYellow, strconv.Itoa(len(issues))+" issues"
	}

	fmt.Fprintf(p.console, "%*s%s %s %s\n", fileIndent, "",
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, path),
		color.New(symbolColor).Sprint(status))
	p.writeIssues(issues)

	zerolog.Ctx(ctx).Debug().Str("file", path).Int("issues", len(issues)).Msg("file checked")
}

func (p *Printer) writeIssues(issues verify.Report) {
	for _, issue := range issues {
		fmt.Fprintf(p.console, "%*s%s %s\n", detailIndent, "",
			color.New(color.FgYellow).Sprint("⚠"),
			issue.Message)
	}
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return color.New(color.Bold).Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return color.New(color.FgCyan).Sprint(line)
	case strings.HasPrefix(line, "+"):
		return color.New(color.FgGreen).Sprint(line)
	case strings.HasPrefix(line, "-"):
		return color.New(color.FgRed).Sprint(line)
	default:
		return line
	}
}

// 📊 Summary prints the outcome counters as a table and a closing verdict
func (p *Printer) Summary(outcome *migrate.BatchOutcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := "changed"
	if outcome.DryRun {
		changed = "would change"
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"processed", changed, "unchanged", "missing", "failed", "with issues"},
		{
			strconv.Itoa(outcome.Processed),
			strconv.Itoa(outcome.Changed),
			strconv.Itoa(outcome.Unchanged),
			strconv.Itoa(outcome.Missing),
			strconv.Itoa(outcome.Failed),
			strconv.Itoa(outcome.Issues),
		},
	}).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}

	fmt.Fprintln(p.console)
	fmt.Fprintln(p.console, table)
	fmt.Fprintln(p.console)

	switch {
	case outcome.Aborted:
		p.print(pterm.Error.WithPrefix(pterm.Prefix{Text: "⏹"}), "migration aborted, remaining files were not processed")
	case outcome.Failed > 0:
		p.print(pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}), fmt.Sprintf("%d of %d files failed", outcome.Failed, outcome.Processed))
	case outcome.HasIssues():
		p.print(pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}), fmt.Sprintf("%d files need a manual look", outcome.Issues))
	case outcome.DryRun:
		p.print(pterm.Info.WithPrefix(pterm.Prefix{Text: "🔍"}), fmt.Sprintf("dry run: %d files would change", outcome.Changed))
	default:
		p.print(pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}), fmt.Sprintf("%d files migrated", outcome.Changed))
	}
	return nil
}

// 📚 Rules prints the catalog in application order
func (p *Printer) Rules(c *catalog.Catalog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := pterm.TableData{{"#", "id", "class", "skip if contains"}}
	for i, r := range c.Rules() {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			r.ID,
			r.Class.String(),
			strings.Join(r.SkipIfContains, ", "),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering rules: %w", err)
	}
	fmt.Fprintln(p.console, table)
	return nil
}

// 📝 JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	enc := json.NewEncoder(p.console)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// 📝 Header prints a header
func (p *Printer) Header(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("remigrate")
	fmt.Fprintf(p.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
}

// 📝 Success prints a success message
func (p *Printer) Success(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print(pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}), msg)
}

// 📝 Warning prints a warning message
func (p *Printer) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print(pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}), msg)
}

// 📝 Error prints an error message
func (p *Printer) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print(pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}), msg)
}

// 📝 Successf prints a formatted success message
func (p *Printer) Successf(format string, args ...interface{}) {
	p.Success(fmt.Sprintf(format, args...))
}

// 📝 Warningf prints a formatted warning message
func (p *Printer) Warningf(format string, args ...interface{}) {
	p.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf prints a formatted error message
func (p *Printer) Errorf(format string, args ...interface{}) {
	p.Error(fmt.Sprintf(format, args...))
}

// print renders through a pterm prefix printer onto the console. Callers
// hold the lock.
func (p *Printer) print(printer *pterm.PrefixPrinter, msg string) {
	fmt.Fprint(p.console, printer.Sprintln(msg))
}
